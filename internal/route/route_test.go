package route

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Route
	}{
		{"bare alias", "#general:example.org", RoomAlias("#general:example.org")},
		{"bare room", "!abc:example.org", Room("!abc:example.org")},
		{"bare user", "@alice:example.org", UserProfile("@alice:example.org")},
		{"matrix alias", "matrix:r/general:example.org", RoomAlias("#general:example.org")},
		{"matrix room with via", "matrix:roomid/abc:example.org?via=example.org&via=other.org",
			Room("!abc:example.org", "example.org", "other.org")},
		{"matrix event", "matrix:roomid/abc:example.org/e/ev1?via=example.org",
			Event("$ev1", "!abc:example.org", "example.org")},
		{"matrix event on alias", "matrix:r/general:example.org/e/ev1",
			EventOnRoomAlias("$ev1", "#general:example.org")},
		{"matrix user", "matrix:u/alice:example.org", UserProfile("@alice:example.org")},
		{"permalink room", "https://matrix.to/#/!abc:example.org?via=example.org", Room("!abc:example.org", "example.org")},
		{"permalink event", "https://matrix.to/#/!abc:example.org/$ev1", Event("$ev1", "!abc:example.org")},
		{"permalink encoded alias", "https://matrix.to/#/%23general%3Aexample.org", RoomAlias("#general:example.org")},
		{"settings", "roomflow://settings", Settings()},
		{"chat backup", "roomflow://settings/chat-backup", ChatBackupSettings()},
		{"room details", "roomflow://room/!abc:example.org/details", RoomDetails("!abc:example.org")},
		{"transfer ownership", "roomflow://room/!abc:example.org/transfer-ownership", TransferOwnership("!abc:example.org")},
		{"member", "roomflow://member/@bob:example.org", RoomMemberDetails("@bob:example.org")},
		{"call link", "roomflow://call?url=https%3A%2F%2Fcall.example.org%2Froom", GenericCallLink("https://call.example.org/room")},
		{"call room", "roomflow://call/!abc:example.org", Call("!abc:example.org")},
		{"share", "roomflow://share?room=!abc:example.org&text=hi", Share(SharePayload{RoomID: "!abc:example.org", Text: "hi"})},
		{"element call", "https://call.example.org/#/room", GenericCallLink("https://call.example.org/#/room")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParse_Unsupported(t *testing.T) {
	for _, in := range []string{"", "https://example.org", "matrix:x/abc", "!", "roomflow://unknown", "!abc:example.org/notanevent"} {
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrUnsupported, in)
	}
}

func TestNormalize(t *testing.T) {
	via := []string{"example.org"}
	require.Equal(t, Room("!abc", via...), Normalize(RoomAlias("#a"), "!abc", via))
	require.Equal(t, ChildRoom("!abc", via...), Normalize(ChildRoomAlias("#a"), "!abc", via))
	require.Equal(t, Event("$e", "!abc", via...), Normalize(EventOnRoomAlias("$e", "#a"), "!abc", via))
	require.Equal(t, ChildEvent("$e", "!abc", via...), Normalize(ChildEventOnRoomAlias("$e", "#a"), "!abc", via))
	require.Equal(t, Settings(), Normalize(Settings(), "!abc", via))
}

func TestRoute_Classification(t *testing.T) {
	for _, k := range Kinds() {
		name := k.String()
		got, ok := KindFromString(name)
		require.True(t, ok, name)
		require.Equal(t, k, got)
	}

	require.True(t, RoomAlias("#a").NeedsAliasResolution())
	require.False(t, Room("!a").NeedsAliasResolution())
	require.True(t, Room("!a").AsChild().IsChild())
	require.Equal(t, KindChildEvent, Event("$e", "!a").AsChild().Kind)
	require.Equal(t, "event(room=!a event=$e via=x.org)", Event("$e", "!a", "x.org").String())
}
