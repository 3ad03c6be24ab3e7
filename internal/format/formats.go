package format

var (
	BMP = &Format{
		Name:         "BMP",
		ContentTypes: []string{"image/bmp"},
		Extensions:   []string{"bmp"},
		MagicBytes:   [][]byte{[]byte("BM")},
	}

	GIF = &Format{
		Name:         "GIF",
		ContentTypes: []string{"image/gif"},
		Extensions:   []string{"gif"},
		MagicBytes:   [][]byte{[]byte("GIF87a"), []byte("GIF89a")},
		Animated:     true,
		SaveOptions:  SaveOptions{OptimizeFrames: true, OptimizeTransparency: true},
	}

	JPEG = &Format{
		Name:         "JPEG",
		ContentTypes: []string{"image/jpeg", "image/pjpeg"},
		Extensions:   []string{"jpg", "jpeg"},
		MagicBytes:   [][]byte{{0xff, 0xd8}},
		SaveOptions:  SaveOptions{Quality: 90, Strip: true},
	}

	PNG = &Format{
		Name:         "PNG",
		ContentTypes: []string{"image/png"},
		Extensions:   []string{"png"},
		MagicBytes:   [][]byte{{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	}

	TIFF = &Format{
		Name:         "TIFF",
		ContentTypes: []string{"image/tiff"},
		Extensions:   []string{"tiff", "tif"},
		MagicBytes:   [][]byte{{'I', 'I', '*', 0x00}, {'M', 'M', 0x00, '*'}},
	}

	WEBP = &Format{
		Name:         "WEBP",
		ContentTypes: []string{"image/webp"},
		Extensions:   []string{"webp"},
		MagicBytes:   [][]byte{[]byte("RIFF")},
		Animated:     true,
		SaveOptions:  SaveOptions{Quality: 90, Strip: true},
	}
)

func init() {
	Register(BMP, GIF, JPEG, PNG, TIFF, WEBP)
}
