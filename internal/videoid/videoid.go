// Package videoid turns user input (bare IDs, watch URLs, short links) into
// canonical 11 character YouTube video IDs.
package videoid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidInput is wrapped by every rejection so callers can use errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Kind classifies why an input was rejected.
type Kind int

const (
	// Malformed covers anything that is not a recognisable YouTube link.
	Malformed Kind = iota
	// Channel is a channel, custom URL, user or @handle page.
	Channel
	// Playlist is a playlist page or a watch link carrying only a list.
	Playlist
	// Search is a search results page.
	Search
)

func (k Kind) String() string {
	switch k {
	case Channel:
		return "channel"
	case Playlist:
		return "playlist"
	case Search:
		return "search"
	default:
		return "malformed"
	}
}

// RejectionError reports why an input could not be turned into a video ID.
type RejectionError struct {
	Kind   Kind
	Input  string
	Reason string
}

func (e *RejectionError) Error() string {
	switch e.Kind {
	case Channel:
		return fmt.Sprintf("%q is a channel link; ytq only queues individual videos, open the channel and copy a video link instead", e.Input)
	case Playlist:
		return fmt.Sprintf("%q is a playlist link; ytq only queues individual videos, copy the link of one video from the playlist", e.Input)
	case Search:
		return fmt.Sprintf("%q is a search results link; pick a video from the results and copy its link", e.Input)
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid video %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid video %q", e.Input)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *RejectionError) Unwrap() error { return ErrInvalidInput }

// YouTube video IDs are exactly 11 characters of [A-Za-z0-9_-].
var idRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsValid reports whether s is a well-formed video ID.
func IsValid(s string) bool {
	return idRegex.MatchString(s)
}

// Path prefixes whose next segment is the video ID.
var idPathPrefixes = map[string]bool{
	"shorts": true,
	"live":   true,
	"embed":  true,
	"v":      true,
	"e":      true,
}

var channelPathPrefixes = map[string]bool{
	"channel": true,
	"c":       true,
	"user":    true,
}

// Extract returns the canonical video ID for raw, or a *RejectionError.
// It never performs I/O.
func Extract(raw string) (string, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return "", &RejectionError{Kind: Malformed, Input: raw, Reason: "empty input"}
	}
	if IsValid(input) {
		return input, nil
	}

	withScheme := input
	if !strings.Contains(input, "://") {
		withScheme = "https://" + input
	}
	u, err := url.Parse(withScheme)
	if err != nil || u.Host == "" {
		return "", &RejectionError{Kind: Malformed, Input: input, Reason: "not a video ID or URL"}
	}

	switch host := canonicalHost(u.Hostname()); host {
	case "youtu.be":
		return checkID(input, firstSegment(u.Path))
	case "youtube.com", "youtube-nocookie.com":
		return extractFromPath(input, u)
	default:
		return "", &RejectionError{Kind: Malformed, Input: input, Reason: fmt.Sprintf("%s is not a YouTube host", u.Hostname())}
	}
}

// ExtractMany splits a comma or whitespace separated list and extracts each
// element, failing on the first rejection.
func ExtractMany(raw string) ([]string, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	ids := make([]string, 0, len(fields))
	for _, field := range fields {
		id, err := Extract(field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, &RejectionError{Kind: Malformed, Input: raw, Reason: "no video IDs given"}
	}
	return ids, nil
}

// WatchURL returns the canonical watch URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func extractFromPath(input string, u *url.URL) (string, error) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	head := strings.ToLower(segments[0])
	query := u.Query()

	switch {
	case head == "watch":
		if v := query.Get("v"); v != "" {
			return checkID(input, v)
		}
		if query.Get("list") != "" {
			return "", &RejectionError{Kind: Playlist, Input: input}
		}
		return "", &RejectionError{Kind: Malformed, Input: input, Reason: "watch link has no v parameter"}
	case head == "playlist":
		return "", &RejectionError{Kind: Playlist, Input: input}
	case head == "results" || head == "search" || head == "hashtag":
		return "", &RejectionError{Kind: Search, Input: input}
	case channelPathPrefixes[head] || strings.HasPrefix(head, "@"):
		return "", &RejectionError{Kind: Channel, Input: input}
	case idPathPrefixes[head]:
		if len(segments) < 2 || segments[1] == "" {
			return "", &RejectionError{Kind: Malformed, Input: input, Reason: "missing video ID after /" + head + "/"}
		}
		if head == "embed" && segments[1] == "videoseries" {
			return "", &RejectionError{Kind: Playlist, Input: input}
		}
		return checkID(input, segments[1])
	}
	return "", &RejectionError{Kind: Malformed, Input: input, Reason: "unrecognised YouTube link"}
}

func checkID(input, id string) (string, error) {
	if !IsValid(id) {
		return "", &RejectionError{Kind: Malformed, Input: input, Reason: fmt.Sprintf("extracted ID %q is not 11 characters of [A-Za-z0-9_-]", id)}
	}
	return id, nil
}

// canonicalHost strips the www, mobile and music sub-domains.
func canonicalHost(host string) string {
	host = strings.ToLower(host)
	for _, prefix := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, prefix)
	}
	return host
}

func firstSegment(path string) string {
	segment, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return segment
}
