// minber/utils/media_test.go
package utils

import "testing"

func TestIsValidImageURL(t *testing.T) {
	valid := []string{
		"/uploads/abc.jpg",
		"/uploads/abc.webp",
		"https://example.com/pic.png",
		"http://example.com/a/b/photo.JPEG",
	}
	for _, u := range valid {
		if !IsValidImageURL(u) {
			t.Errorf("Expected %q to be a valid image URL", u)
		}
	}

	invalid := []string{
		"",
		"/uploads/abc.exe",
		"https://example.com/page.html",
		"ftp://example.com/pic.png",
		"not a url at all",
		"javascript:alert(1)",
	}
	for _, u := range invalid {
		if IsValidImageURL(u) {
			t.Errorf("Expected %q to be rejected", u)
		}
	}
}

func TestIsValidVideoURL(t *testing.T) {
	valid := []string{
		"/uploads/clip.mp4",
		"/uploads/clip.webm",
		"https://www.youtube.com/watch?v=abc",
		"https://youtu.be/abc",
		"https://vimeo.com/12345",
		"https://cdn.example.com/video.mp4",
	}
	for _, u := range valid {
		if !IsValidVideoURL(u) {
			t.Errorf("Expected %q to be a valid video URL", u)
		}
	}

	invalid := []string{
		"",
		"/uploads/clip.txt",
		"https://example.com/page.html",
	}
	for _, u := range invalid {
		if IsValidVideoURL(u) {
			t.Errorf("Expected %q to be rejected", u)
		}
	}
}

func TestConvertToEmbedURL(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc123": "https://www.youtube.com/embed/abc123",
		"https://youtube.com/shorts/xyz":         "https://www.youtube.com/embed/xyz",
		"https://youtu.be/abc123":                "https://www.youtube.com/embed/abc123",
		"https://vimeo.com/987654":               "https://player.vimeo.com/video/987654",
		// Already embeddable or unknown hosts pass through.
		"https://www.youtube.com/embed/abc123": "https://www.youtube.com/embed/abc123",
		"https://cdn.example.com/video.mp4":    "https://cdn.example.com/video.mp4",
	}
	for in, want := range cases {
		if got := ConvertToEmbedURL(in); got != want {
			t.Errorf("ConvertToEmbedURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeThumbnailRejectsGarbage(t *testing.T) {
	if _, err := MakeThumbnail([]byte("definitely not an image")); err == nil {
		t.Error("Expected decode error for non-image bytes")
	}
}
