package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

const (
	DefaultAvatarURL = "default_avatar.png"
)

// 推荐策略
const (
	RecommendPolicyFresh   = "fresh"
	RecommendPolicySession = "session"
)
