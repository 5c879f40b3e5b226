package cooldown

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPolicy = errors.New("invalid cooldown policy")

// BucketKind decides which part of an invocation a cooldown is keyed on.
type BucketKind string

const (
	BucketUser    BucketKind = "user"
	BucketGuild   BucketKind = "guild"
	BucketChannel BucketKind = "channel"
	BucketGlobal  BucketKind = "global"
)

// Policy allows MaxCalls invocations per sliding Window for each scope of kind Bucket.
type Policy struct {
	Window   time.Duration
	MaxCalls int
	Bucket   BucketKind
}

func (p Policy) Validate() error {
	if p.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidPolicy, p.Window)
	}
	if p.MaxCalls < 1 {
		return fmt.Errorf("%w: max calls must be at least 1, got %d", ErrInvalidPolicy, p.MaxCalls)
	}
	switch p.Bucket {
	case BucketUser, BucketGuild, BucketChannel, BucketGlobal:
		return nil
	default:
		return fmt.Errorf("%w: unknown bucket %q", ErrInvalidPolicy, p.Bucket)
	}
}

// Scope is the (kind, key) pair rate-limit accounting is shared under.
type Scope struct {
	Kind BucketKind
	Key  string
}

func (s Scope) String() string { return string(s.Kind) + ":" + s.Key }

// Subject carries the ids a scope can be derived from. GuildID is empty in DMs.
type Subject struct {
	UserID    string
	GuildID   string
	ChannelID string
}

// ScopeFor derives the scope of kind for sub. A guild bucket used outside a
// guild falls back to the channel and then to the user, so DMs never share
// accounting with a guild.
func ScopeFor(kind BucketKind, sub Subject) Scope {
	switch kind {
	case BucketGuild:
		switch {
		case sub.GuildID != "":
			return Scope{Kind: BucketGuild, Key: sub.GuildID}
		case sub.ChannelID != "":
			return Scope{Kind: BucketChannel, Key: sub.ChannelID}
		default:
			return Scope{Kind: BucketUser, Key: sub.UserID}
		}
	case BucketChannel:
		if sub.ChannelID != "" {
			return Scope{Kind: BucketChannel, Key: sub.ChannelID}
		}
		return Scope{Kind: BucketUser, Key: sub.UserID}
	case BucketGlobal:
		return Scope{Kind: BucketGlobal}
	default:
		return Scope{Kind: BucketUser, Key: sub.UserID}
	}
}
