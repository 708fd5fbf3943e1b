package document

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Body"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
)

// FontSet is the UTF-8 TrueType family every exported PDF is set in.
type FontSet struct {
	Regular []byte
	Bold    []byte
}

var activeFonts atomic.Pointer[FontSet]

// DefaultFonts returns the embedded DejaVu Sans Condensed family.
func DefaultFonts() FontSet {
	return FontSet{Regular: dejaVuRegular, Bold: dejaVuBold}
}

// LoadFonts reads TTF files from disk. An empty bold path reuses the regular face.
func LoadFonts(regularPath, boldPath string) (FontSet, error) {
	if regularPath == "" {
		return FontSet{}, errors.New("regular font path is required")
	}
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return FontSet{}, fmt.Errorf("read font: %w", err)
	}
	fs := FontSet{Regular: regular, Bold: regular}
	if boldPath != "" {
		if fs.Bold, err = os.ReadFile(boldPath); err != nil {
			return FontSet{}, fmt.Errorf("read bold font: %w", err)
		}
	}
	return fs, nil
}

// UseFonts replaces the family used by later renders.
func UseFonts(fs FontSet) {
	if len(fs.Bold) == 0 {
		fs.Bold = fs.Regular
	}
	activeFonts.Store(&fs)
}

// ConfigureFonts loads and installs the configured TTFs. An empty regular
// path keeps the current family.
func ConfigureFonts(regularPath, boldPath string) error {
	if regularPath == "" {
		return nil
	}
	fs, err := LoadFonts(regularPath, boldPath)
	if err != nil {
		return err
	}
	UseFonts(fs)
	return nil
}

func currentFonts() FontSet {
	if fs := activeFonts.Load(); fs != nil && len(fs.Regular) > 0 {
		return *fs
	}
	return DefaultFonts()
}

func registerFonts(pdf *fpdf.Fpdf) {
	fs := currentFonts()
	pdf.AddUTF8FontFromBytes(fontFamily, "", fs.Regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", fs.Bold)
}
