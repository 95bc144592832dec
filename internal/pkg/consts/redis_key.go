package consts

const (
	UserSimpleInfoKey   = "user:simple:info:"
	RecommendPageKey    = "recommend:page:"
	RecommendExploreKey = "recommend:explore:"
)

const (
	LikeReconcileLock = "lock:job:like_reconcile"
)
