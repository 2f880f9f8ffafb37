package service

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"cell.png":                "cell.png",
		"My Cell Image.PNG":       "My_Cell_Image.PNG",
		"../../etc/passwd":        "passwd",
		`C:\Users\bob\blood.jpg`:  "blood.jpg",
		"  spaced   out  .jpeg":   "spaced_out_.jpeg",
		".hidden.png":             "hidden.png",
		"naïve café.jpg":          "naive_cafe.jpg",
		"we<ird>|name?.png":       "weirdname.png",
		"":                        "",
		"...":                     "",
		"数据.png":                  "png",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
