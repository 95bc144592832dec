package events

import (
	"errors"
	"testing"
)

func TestParseInteraction(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Interaction
		wantErr bool
	}{
		{
			name: "like",
			body: `{"type":"LIKE","userId":3,"targetId":"65f0c0ffee","action":"LIKE"}`,
			want: LikeEvent{UserID: 3, ContentID: "65f0c0ffee", Liked: true},
		},
		{
			name: "unlike",
			body: `{"type":"LIKE","userId":3,"targetId":"65f0c0ffee","action":"UNLIKE"}`,
			want: LikeEvent{UserID: 3, ContentID: "65f0c0ffee", Liked: false},
		},
		{
			name: "follow",
			body: `{"type":"FOLLOW","userId":3,"targetId":"9","action":"FOLLOW"}`,
			want: FollowEvent{FollowerID: 3, FollowedID: 9, Following: true},
		},
		{
			name: "unfollow",
			body: `{"type":"FOLLOW","userId":3,"targetId":"9","action":"UNFOLLOW"}`,
			want: FollowEvent{FollowerID: 3, FollowedID: 9, Following: false},
		},
		{name: "toggle is not a resolved action", body: `{"type":"FOLLOW","userId":3,"targetId":"9","action":"TOGGLE"}`, wantErr: true},
		{name: "mismatched action", body: `{"type":"LIKE","userId":3,"targetId":"9","action":"FOLLOW"}`, wantErr: true},
		{name: "non numeric follow target", body: `{"type":"FOLLOW","userId":3,"targetId":"abc","action":"FOLLOW"}`, wantErr: true},
		{name: "self follow", body: `{"type":"FOLLOW","userId":3,"targetId":"3","action":"FOLLOW"}`, wantErr: true},
		{name: "missing user", body: `{"type":"LIKE","targetId":"x","action":"LIKE"}`, wantErr: true},
		{name: "not json", body: `{"type":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInteraction([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("ParseInteraction() error = %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInteraction() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseInteraction() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestInteractionRoundTrip(t *testing.T) {
	for _, e := range []Interaction{
		NewLikeEvent(1, "abc", true),
		NewFollowEvent(1, 2, false),
	} {
		body, err := EncodeInteraction(e)
		if err != nil {
			t.Fatalf("EncodeInteraction() error = %v", err)
		}
		got, err := ParseInteraction(body)
		if err != nil {
			t.Fatalf("ParseInteraction(%s) error = %v", body, err)
		}
		if got != e {
			t.Errorf("round trip = %#v, want %#v", got, e)
		}
	}
}

func TestParseProfileChangePartial(t *testing.T) {
	p, err := ParseProfileChange([]byte(`{"userId":5,"name":"X"}`))
	if err != nil {
		t.Fatalf("ParseProfileChange() error = %v", err)
	}
	if p.Name == nil || *p.Name != "X" {
		t.Errorf("Name = %v, want X", p.Name)
	}
	if p.Photo != nil {
		t.Errorf("Photo = %v, want nil for absent field", *p.Photo)
	}
	if p.Empty() {
		t.Error("Empty() = true, want false")
	}

	if _, err := ParseProfileChange([]byte(`{"name":"X"}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("missing userId error = %v, want ErrMalformed", err)
	}
}

func TestParseMediaEvent(t *testing.T) {
	if _, err := ParseMediaEvent([]byte(`{"contentId":"c1","mimeType":"image/png"}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("media event without source error = %v, want ErrMalformed", err)
	}
	e, err := ParseMediaEvent([]byte(`{"contentId":"c1","mediaRef":"minio://bucket/a.png","mimeType":"image/png"}`))
	if err != nil {
		t.Fatalf("ParseMediaEvent() error = %v", err)
	}
	if e.MediaRef != "minio://bucket/a.png" {
		t.Errorf("MediaRef = %q", e.MediaRef)
	}
}

func TestRealtimeEvent(t *testing.T) {
	e, err := NewRealtimeEvent(RealtimeNewFollower, map[string]uint64{"followerId": 3}, UserRoom(7))
	if err != nil {
		t.Fatalf("NewRealtimeEvent() error = %v", err)
	}
	body, err := EncodeRealtimeEvent(e)
	if err != nil {
		t.Fatalf("EncodeRealtimeEvent() error = %v", err)
	}
	got, err := ParseRealtimeEvent(body)
	if err != nil {
		t.Fatalf("ParseRealtimeEvent() error = %v", err)
	}
	if got.RoomID != "7" || got.Event != RealtimeNewFollower || string(got.Data) != `{"followerId":3}` {
		t.Errorf("ParseRealtimeEvent() = %+v", got)
	}
	if _, err := ParseRealtimeEvent([]byte(`{"data":1}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("missing event name error = %v, want ErrMalformed", err)
	}
}
