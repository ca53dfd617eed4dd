package detect

import "testing"

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mimeType string
		want     string
	}{
		{"pdf by mime", "anything.bin", "application/pdf", CategoryDocuments},
		{"docx by mime", "report", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", CategoryDocuments},
		{"legacy doc by mime", "old", "application/msword", CategoryDocuments},
		{"image mime beats filename", "report.pdf", "image/png", CategoryImages},
		{"any image subtype", "x", "image/x-obscure-format", CategoryImages},
		{"pdf by extension", "report.pdf", "", CategoryDocuments},
		{"docx by extension", "Notes.DOCX", "", CategoryDocuments},
		{"jpeg by extension", "photo.JPG", "", CategoryImages},
		{"webp by extension", "sticker.webp", "", CategoryImages},
		{"unknown mime falls to extension", "photo.png", "application/octet-stream", CategoryImages},
		{"unknown everything", "archive.zip", "application/zip", CategoryNotes},
		{"empty inputs", "", "", CategoryNotes},
		{"filename without extension", "README", "", CategoryNotes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentType(tt.filename, tt.mimeType); got != tt.want {
				t.Errorf("ContentType(%q, %q) = %q, want %q", tt.filename, tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestImageMIMEAlwaysWins(t *testing.T) {
	// Any image/* MIME yields images regardless of filename.
	for _, name := range []string{"", "report.pdf", "notes.txt", "weird.docx"} {
		if got := ContentType(name, "image/gif"); got != CategoryImages {
			t.Errorf("ContentType(%q, image/gif) = %q, want images", name, got)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}
	if ValidCategory("videos") {
		t.Error("expected videos to be invalid")
	}
	if ValidCategory("") {
		t.Error("expected empty string to be invalid")
	}
}
