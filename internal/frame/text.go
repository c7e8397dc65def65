package frame

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
)

// TextEncoder converts UTF-8 text into the single-byte codepage of the display.
// Characters the codepage cannot represent are dropped.
type TextEncoder struct {
	mu       sync.Mutex
	codepage string
	tr       charset.Translator
}

// NewTextEncoder with empty codepage or "ascii" keeps 7-bit characters only.
func NewTextEncoder(codepage string) (*TextEncoder, error) {
	self := &TextEncoder{}
	if err := self.SetCodepage(codepage); err != nil {
		return nil, errors.Trace(err)
	}
	return self, nil
}

func (self *TextEncoder) SetCodepage(cp string) error {
	cp = strings.ToLower(strings.TrimSpace(cp))
	var tr charset.Translator
	if cp != "" && cp != "ascii" && cp != "us-ascii" {
		var err error
		if tr, err = charset.TranslatorTo(cp); err != nil {
			return errors.Annotatef(err, "codepage=%s", cp)
		}
	}

	self.mu.Lock()
	defer self.mu.Unlock()
	self.codepage = cp
	self.tr = tr
	return nil
}

func (self *TextEncoder) Codepage() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.codepage
}

// Encode never fails. Invalid UTF-8 sequences are dropped as well.
func (self *TextEncoder) Encode(s string) []byte {
	self.mu.Lock()
	defer self.mu.Unlock()

	out := make([]byte, 0, len(s))
	var one [utf8.UTFMax]byte
	for _, r := range s {
		if r == utf8.RuneError {
			continue
		}
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if self.tr == nil {
			continue
		}
		n := utf8.EncodeRune(one[:], r)
		// translator reuses single internal buffer, consume it right away
		_, tb, err := self.tr.Translate(one[:n], true)
		if err != nil || len(tb) != 1 || tb[0] == '?' {
			continue
		}
		out = append(out, tb[0])
	}
	return out
}
