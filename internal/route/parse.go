package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AppScheme is the custom URL scheme for app-internal links.
const AppScheme = "roomflow"

// ErrUnsupported is returned for URIs that map to no route.
var ErrUnsupported = errors.New("unsupported uri")

// Parse decodes a link into a Route. It understands matrix: URIs,
// https://matrix.to permalinks, bare identifiers (#alias, !room, @user)
// and roomflow:// app links.
func Parse(raw string) (Route, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Route{}, fmt.Errorf("parse %q: %w", raw, ErrUnsupported)
	}

	switch raw[0] {
	case '#', '!', '@':
		return parseIdentifiers(raw, nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Route{}, fmt.Errorf("parse %q: %w", raw, err)
	}

	switch {
	case u.Scheme == "matrix":
		return parseMatrixURI(raw, u)
	case (u.Scheme == "https" || u.Scheme == "http") && u.Host == "matrix.to":
		return parsePermalink(raw, u)
	case u.Scheme == AppScheme:
		return parseAppLink(raw, u)
	case u.Scheme == "https" && strings.HasPrefix(u.Host, "call."):
		return GenericCallLink(raw), nil
	}
	return Route{}, fmt.Errorf("parse %q: %w", raw, ErrUnsupported)
}

// parseMatrixURI handles matrix:r/alias:server/e/event?via=server style
// URIs, where sigils are replaced by a type segment.
func parseMatrixURI(raw string, u *url.URL) (Route, error) {
	opaque := u.Opaque
	if opaque == "" {
		opaque = strings.TrimPrefix(u.Path, "/")
	}
	segments := strings.Split(opaque, "/")
	if len(segments) < 2 {
		return Route{}, fmt.Errorf("parse %q: %w", raw, ErrUnsupported)
	}

	var ids []string
	for i := 0; i+1 < len(segments); i += 2 {
		value, err := url.PathUnescape(segments[i+1])
		if err != nil {
			return Route{}, fmt.Errorf("parse %q: %w", raw, err)
		}
		switch segments[i] {
		case "r":
			ids = append(ids, "#"+value)
		case "roomid":
			ids = append(ids, "!"+value)
		case "u":
			ids = append(ids, "@"+value)
		case "e":
			ids = append(ids, "$"+value)
		default:
			return Route{}, fmt.Errorf("parse %q: unknown segment %q: %w", raw, segments[i], ErrUnsupported)
		}
	}
	return parseIdentifiers(strings.Join(ids, "/"), u.Query()["via"])
}

// parsePermalink handles https://matrix.to/#/<id>[/<event>]?via=server.
func parsePermalink(raw string, u *url.URL) (Route, error) {
	fragment := strings.TrimPrefix(u.Fragment, "/")
	path, query, _ := strings.Cut(fragment, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return Route{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return Route{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	return parseIdentifiers(decoded, values["via"])
}

// parseIdentifiers maps "<room or user>[/<event>]" to a route.
func parseIdentifiers(ids string, via []string) (Route, error) {
	first, eventID, _ := strings.Cut(ids, "/")
	if eventID != "" && !strings.HasPrefix(eventID, "$") {
		return Route{}, fmt.Errorf("parse %q: bad event id: %w", ids, ErrUnsupported)
	}
	if len(first) < 2 {
		return Route{}, fmt.Errorf("parse %q: %w", ids, ErrUnsupported)
	}

	switch first[0] {
	case '#':
		if eventID != "" {
			return EventOnRoomAlias(eventID, first), nil
		}
		return RoomAlias(first), nil
	case '!':
		if eventID != "" {
			return Event(eventID, first, via...), nil
		}
		return Room(first, via...), nil
	case '@':
		return UserProfile(first), nil
	}
	return Route{}, fmt.Errorf("parse %q: %w", ids, ErrUnsupported)
}

// parseAppLink handles roomflow://<host>[/<path>] links.
func parseAppLink(raw string, u *url.URL) (Route, error) {
	path := strings.Trim(u.Path, "/")
	switch u.Host {
	case "settings":
		if path == "chat-backup" {
			return ChatBackupSettings(), nil
		}
		return Settings(), nil
	case "room-list":
		return RoomList(), nil
	case "call":
		if target := u.Query().Get("url"); target != "" {
			return GenericCallLink(target), nil
		}
		if path != "" {
			return Call(path), nil
		}
	case "room":
		if path != "" {
			room, sub, _ := strings.Cut(path, "/")
			switch sub {
			case "details":
				return RoomDetails(room), nil
			case "transfer-ownership":
				return TransferOwnership(room), nil
			case "":
				return Room(room, u.Query()["via"]...), nil
			}
		}
	case "member":
		if path != "" {
			return RoomMemberDetails(path), nil
		}
	case "share":
		q := u.Query()
		return Share(SharePayload{RoomID: q.Get("room"), Text: q.Get("text"), MediaFiles: q["file"]}), nil
	case "provision":
		return AccountProvisioningLink(raw), nil
	}
	return Route{}, fmt.Errorf("parse %q: %w", raw, ErrUnsupported)
}
