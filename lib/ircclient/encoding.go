// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultEncoding is the fallback used for lines that are not valid UTF-8.
const DefaultEncoding = "ISO-8859-15"

// Encoding is a named fallback codec for non-UTF-8 lines.
type Encoding struct {
	Name  string
	codec encoding.Encoding
}

// supportedEncodings is the whitelist of fallback encodings, keyed by
// canonical name.
var supportedEncodings = map[string]encoding.Encoding{
	"ISO-8859-1":     charmap.ISO8859_1,
	"ISO-8859-2":     charmap.ISO8859_2,
	"ISO-8859-3":     charmap.ISO8859_3,
	"ISO-8859-4":     charmap.ISO8859_4,
	"ISO-8859-5":     charmap.ISO8859_5,
	"ISO-8859-6":     charmap.ISO8859_6,
	"ISO-8859-7":     charmap.ISO8859_7,
	"ISO-8859-8":     charmap.ISO8859_8,
	"ISO-8859-9":     charmap.ISO8859_9,
	"ISO-8859-10":    charmap.ISO8859_10,
	"ISO-8859-13":    charmap.ISO8859_13,
	"ISO-8859-14":    charmap.ISO8859_14,
	"ISO-8859-15":    charmap.ISO8859_15,
	"ISO-8859-16":    charmap.ISO8859_16,
	"Windows-874":    charmap.Windows874,
	"Windows-1250":   charmap.Windows1250,
	"Windows-1251":   charmap.Windows1251,
	"Windows-1252":   charmap.Windows1252,
	"Windows-1253":   charmap.Windows1253,
	"Windows-1254":   charmap.Windows1254,
	"Windows-1255":   charmap.Windows1255,
	"Windows-1256":   charmap.Windows1256,
	"Windows-1257":   charmap.Windows1257,
	"Windows-1258":   charmap.Windows1258,
	"KOI8-R":         charmap.KOI8R,
	"KOI8-U":         charmap.KOI8U,
	"IBM437":         charmap.CodePage437,
	"IBM850":         charmap.CodePage850,
	"IBM852":         charmap.CodePage852,
	"IBM855":         charmap.CodePage855,
	"IBM858":         charmap.CodePage858,
	"IBM860":         charmap.CodePage860,
	"IBM862":         charmap.CodePage862,
	"IBM863":         charmap.CodePage863,
	"IBM865":         charmap.CodePage865,
	"IBM866":         charmap.CodePage866,
	"macintosh":      charmap.Macintosh,
	"x-mac-cyrillic": charmap.MacintoshCyrillic,
	"Shift_JIS":      japanese.ShiftJIS,
	"EUC-JP":         japanese.EUCJP,
	"ISO-2022-JP":    japanese.ISO2022JP,
	"EUC-KR":         korean.EUCKR,
	"GBK":            simplifiedchinese.GBK,
	"GB18030":        simplifiedchinese.GB18030,
	"Big5":           traditionalchinese.Big5,
}

// encodingAliases maps common alternative spellings onto canonical names.
var encodingAliases = map[string]string{
	"latin1":      "ISO-8859-1",
	"latin-1":     "ISO-8859-1",
	"latin9":      "ISO-8859-15",
	"latin-9":     "ISO-8859-15",
	"cp1252":      "Windows-1252",
	"cp1251":      "Windows-1251",
	"cp437":       "IBM437",
	"cp866":       "IBM866",
	"sjis":        "Shift_JIS",
	"shift-jis":   "Shift_JIS",
	"gb2312":      "GBK",
	"big-5":       "Big5",
	"mac":         "macintosh",
	"koi8r":       "KOI8-R",
	"koi8u":       "KOI8-U",
	"iso8859-1":   "ISO-8859-1",
	"iso8859-15":  "ISO-8859-15",
	"iso-latin-1": "ISO-8859-1",
}

// LookupEncoding resolves name against the supported encodings.
func LookupEncoding(name string) (*Encoding, error) {
	name = strings.TrimSpace(name)
	if alias, exists := encodingAliases[strings.ToLower(name)]; exists {
		name = alias
	}
	for canonical, codec := range supportedEncodings {
		if strings.EqualFold(canonical, name) {
			return &Encoding{Name: canonical, codec: codec}, nil
		}
	}
	return nil, ErrUnsupportedEncoding
}

// IsSupportedEncoding reports whether name can be used as a fallback encoding.
func IsSupportedEncoding(name string) bool {
	_, err := LookupEncoding(name)
	return err == nil
}

// SupportedEncodings returns the canonical names of all supported encodings.
func SupportedEncodings() []string {
	names := make([]string, 0, len(supportedEncodings))
	for name := range supportedEncodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func defaultEncoding() *Encoding {
	enc, _ := LookupEncoding(DefaultEncoding)
	return enc
}

// decodeText returns data as UTF-8 text along with the name of the encoding
// that was used. It never fails: bytes the fallback cannot map are replaced.
func decodeText(data []byte, fallback *Encoding) (string, string) {
	if utf8.Valid(data) {
		return string(data), "UTF-8"
	}
	if fallback == nil {
		fallback = defaultEncoding()
	}

	text, err := fallback.codec.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), fallback.Name
	}
	return string(text), fallback.Name
}
