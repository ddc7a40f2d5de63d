package videoid

import (
	"errors"
	"testing"
)

const canonical = "dQw4w9WgXcQ"

func TestExtract_SupportedShapes(t *testing.T) {
	tests := []string{
		"dQw4w9WgXcQ",
		"  dQw4w9WgXcQ\n",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
		"https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&index=3",
		"http://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ&feature=share",
		"www.youtube.com/watch?v=dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=abcdef",
		"youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://youtube.com/shorts/dQw4w9WgXcQ?feature=share",
		"https://www.youtube.com/live/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ",
		"https://www.youtube.com/e/dQw4w9WgXcQ",
		"HTTPS://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := Extract(input)
			if err != nil {
				t.Fatalf("Extract(%q) error = %v", input, err)
			}
			if got != canonical {
				t.Errorf("Extract(%q) = %q, want %q", input, got, canonical)
			}
		})
	}
}

func TestExtract_UnsupportedShapes(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw", Channel},
		{"https://www.youtube.com/c/mychannel", Channel},
		{"https://www.youtube.com/user/someone", Channel},
		{"https://www.youtube.com/@handle", Channel},
		{"youtube.com/@handle/videos", Channel},
		{"https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf", Playlist},
		{"https://www.youtube.com/watch?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf", Playlist},
		{"https://www.youtube.com/embed/videoseries?list=PL123", Playlist},
		{"https://www.youtube.com/results?search_query=go+generics", Search},
		{"https://m.youtube.com/results?search_query=go", Search},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Extract(tt.input)
			var rej *RejectionError
			if !errors.As(err, &rej) {
				t.Fatalf("Extract(%q) error = %v, want *RejectionError", tt.input, err)
			}
			if rej.Kind != tt.kind {
				t.Errorf("Extract(%q) kind = %v, want %v", tt.input, rej.Kind, tt.kind)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Extract(%q) error does not wrap ErrInvalidInput", tt.input)
			}
		})
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"short",
		"dQw4w9WgXcQx",
		"dQw4w9WgX!Q",
		"https://vimeo.com/123456",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/watch?v=short",
		"https://youtu.be/",
		"https://www.youtube.com/shorts/",
		"https://www.youtube.com/feed/subscriptions",
		"https://notyoutube.com/watch?v=dQw4w9WgXcQ",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Extract(input)
			var rej *RejectionError
			if !errors.As(err, &rej) {
				t.Fatalf("Extract(%q) error = %v, want *RejectionError", input, err)
			}
			if rej.Kind != Malformed {
				t.Errorf("Extract(%q) kind = %v, want malformed", input, rej.Kind)
			}
		})
	}
}

func TestExtractMany(t *testing.T) {
	got, err := ExtractMany("dQw4w9WgXcQ, https://youtu.be/a1111111111 b2222222222")
	if err != nil {
		t.Fatalf("ExtractMany() error = %v", err)
	}
	want := []string{"dQw4w9WgXcQ", "a1111111111", "b2222222222"}
	if len(got) != len(want) {
		t.Fatalf("ExtractMany() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtractMany()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ExtractMany("dQw4w9WgXcQ,https://www.youtube.com/@handle"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ExtractMany() with a channel error = %v, want ErrInvalidInput", err)
	}
	if _, err := ExtractMany(" , "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ExtractMany() with no IDs error = %v, want ErrInvalidInput", err)
	}
}
