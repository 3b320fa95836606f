// Package scenario loads YAML navigation scripts and plays them against
// an app session: fixtures seed the in-memory session, steps drive routes
// and screen taps through the coordination loop, and expectations check
// flow state, presented screens, toasts and emitted actions.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/roomflow/internal/session"
)

// ErrInvalidScript is returned for scripts that parse but cannot run.
var ErrInvalidScript = errors.New("invalid scenario")

// Script is one scenario file.
type Script struct {
	Name    string          `yaml:"name"`
	User    string          `yaml:"user"`
	Flags   map[string]bool `yaml:"flags"`
	Rooms   []Room          `yaml:"rooms"`
	Aliases []Alias         `yaml:"aliases"`
	Events  []Event         `yaml:"events"`
	Steps   []Step          `yaml:"steps"`
}

// Room is a room or space known to the session.
type Room struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Alias      string   `yaml:"alias"`
	Membership string   `yaml:"membership"`
	Space      bool     `yaml:"space"`
	Direct     bool     `yaml:"direct"`
	Children   []string `yaml:"children"`
}

// Alias points a room alias at a room id.
type Alias struct {
	Alias string   `yaml:"alias"`
	Room  string   `yaml:"room"`
	Via   []string `yaml:"via"`
}

// Event is a timeline event, optionally inside a thread.
type Event struct {
	Room       string `yaml:"room"`
	ID         string `yaml:"id"`
	ThreadRoot string `yaml:"thread_root"`
}

// Step is a single instruction. Exactly one field is set.
type Step struct {
	Route   string        `yaml:"route,omitempty"`
	Tab     string        `yaml:"tab,omitempty"`
	Tap     *Tap          `yaml:"tap,omitempty"`
	Dismiss string        `yaml:"dismiss,omitempty"`
	Wait    time.Duration `yaml:"wait,omitempty"`
	Expect  *Expect       `yaml:"expect,omitempty"`
}

// Tap sends a named action to the top-most screen of a kind.
type Tap struct {
	Screen string `yaml:"screen"`
	Action string `yaml:"action"`
	Arg    string `yaml:"arg"`
}

// Expect lists assertions; every set field must hold.
type Expect struct {
	State  string `yaml:"state"`
	Screen string `yaml:"screen"`
	Absent string `yaml:"absent"`
	Detail string `yaml:"detail"`
	Toast  string `yaml:"toast"`
	Action string `yaml:"action"`
	Tree   string `yaml:"tree"`
	Recent string `yaml:"recent"`
}

// Kind names the instruction a step carries.
func (s Step) Kind() string {
	switch {
	case s.Route != "":
		return "route"
	case s.Tab != "":
		return "tab"
	case s.Tap != nil:
		return "tap"
	case s.Dismiss != "":
		return "dismiss"
	case s.Wait > 0:
		return "wait"
	case s.Expect != nil:
		return "expect"
	}
	return ""
}

func (s Step) String() string {
	switch s.Kind() {
	case "route":
		return "route " + s.Route
	case "tab":
		return "tab " + s.Tab
	case "tap":
		if s.Tap.Arg != "" {
			return fmt.Sprintf("tap %s.%s(%s)", s.Tap.Screen, s.Tap.Action, s.Tap.Arg)
		}
		return fmt.Sprintf("tap %s.%s", s.Tap.Screen, s.Tap.Action)
	case "dismiss":
		return "dismiss " + s.Dismiss
	case "wait":
		return "wait " + s.Wait.String()
	case "expect":
		return "expect " + s.Expect.String()
	}
	return "empty"
}

func (e *Expect) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("state", e.State)
	add("screen", e.Screen)
	add("absent", e.Absent)
	add("detail", e.Detail)
	add("toast", e.Toast)
	add("action", e.Action)
	add("tree", e.Tree)
	add("recent", e.Recent)
	return strings.Join(parts, " ")
}

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	script, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

// Parse decodes and validates a script. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var script Script
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// Validate checks fixtures and steps.
func (s *Script) Validate() error {
	var errs []error
	if s.User == "" {
		errs = append(errs, fmt.Errorf("%w: user is required", ErrInvalidScript))
	}
	seen := make(map[string]bool, len(s.Rooms))
	for i, r := range s.Rooms {
		if !strings.HasPrefix(r.ID, "!") {
			errs = append(errs, fmt.Errorf("%w: rooms[%d]: id %q must start with !", ErrInvalidScript, i, r.ID))
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("%w: rooms[%d]: duplicate id %q", ErrInvalidScript, i, r.ID))
		}
		seen[r.ID] = true
		if r.Membership != "" && r.Membership != "unknown" && session.ParseMembership(r.Membership) == session.MembershipUnknown {
			errs = append(errs, fmt.Errorf("%w: rooms[%d]: unknown membership %q", ErrInvalidScript, i, r.Membership))
		}
	}
	for i, a := range s.Aliases {
		if !strings.HasPrefix(a.Alias, "#") || a.Room == "" {
			errs = append(errs, fmt.Errorf("%w: aliases[%d]: need #alias and room", ErrInvalidScript, i))
		}
	}
	for i, e := range s.Events {
		if e.Room == "" || e.ID == "" {
			errs = append(errs, fmt.Errorf("%w: events[%d]: need room and id", ErrInvalidScript, i))
		}
	}
	if len(s.Steps) == 0 {
		errs = append(errs, fmt.Errorf("%w: no steps", ErrInvalidScript))
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: steps[%d]: %w", ErrInvalidScript, i, err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	set := 0
	for _, ok := range []bool{s.Route != "", s.Tab != "", s.Tap != nil, s.Dismiss != "", s.Wait > 0, s.Expect != nil} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return errors.New("empty step")
	case set > 1:
		return errors.New("a step takes exactly one instruction")
	}
	switch s.Kind() {
	case "tab":
		if s.Tab != "chats" && s.Tab != "spaces" {
			return fmt.Errorf("unknown tab %q", s.Tab)
		}
	case "tap":
		if s.Tap.Screen == "" {
			return errors.New("tap needs a screen")
		}
		if _, ok := taps[s.Tap.Action]; !ok {
			return fmt.Errorf("unknown tap action %q", s.Tap.Action)
		}
	case "dismiss":
		if _, ok := dismissals[s.Dismiss]; !ok {
			return fmt.Errorf("unknown slot %q", s.Dismiss)
		}
	case "expect":
		if *s.Expect == (Expect{}) {
			return errors.New("expect has no assertions")
		}
	}
	return nil
}

// Session builds the in-memory session the script's fixtures describe.
func (s *Script) Session(opts ...session.MemoryOption) *session.Memory {
	client := session.NewMemory(s.User, opts...)
	for _, r := range s.Rooms {
		info := session.RoomInfo{
			ID:         r.ID,
			Name:       r.Name,
			Alias:      r.Alias,
			Membership: session.MembershipJoined,
			IsSpace:    r.Space,
			IsDirect:   r.Direct,
			Children:   r.Children,
		}
		if r.Membership != "" {
			info.Membership = session.ParseMembership(r.Membership)
		}
		if info.Name == "" {
			info.Name = r.ID
		}
		client.AddRoom(info)
	}
	for _, a := range s.Aliases {
		client.AddAlias(a.Alias, a.Room, a.Via...)
	}
	for _, e := range s.Events {
		client.AddEvent(session.EventDetails{RoomID: e.Room, EventID: e.ID, ThreadRootID: e.ThreadRoot})
	}
	return client
}
