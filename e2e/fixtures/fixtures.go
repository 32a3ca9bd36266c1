// Package fixtures builds submissions for the end-to-end scenarios.
package fixtures

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// File is one multipart file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Fields returns a complete set of form fields for userType.
func Fields(userType string) map[string]string {
	fields := map[string]string{
		"user_type":     userType,
		"name":          "John Smith",
		"email":         "john.smith@example.com",
		"contact":       "+15550100",
		"government_id": "G4567890",
	}
	if userType == "student" {
		fields["college_name"] = "State College"
		fields["college_id"] = "C1234"
	}
	return fields
}

// Documents returns every document userType must upload, as small PNGs.
func Documents(userType string) []File {
	fields := []string{"college_id_photo", "gov_id_photo", "selfie", "ssc_certificate"}
	if userType == "employee" {
		fields = append(fields, "graduate_certificate")
	}
	files := make([]File, 0, len(fields))
	for _, f := range fields {
		files = append(files, File{Field: f, Filename: f + ".png", ContentType: "image/png", Data: checkerboard()})
	}
	return files
}

// checkerboard is sharp enough to clear the blur gate.
func checkerboard() []byte {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x/8+y/8)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
