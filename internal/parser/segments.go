package parser

import (
	"regexp"
	"strings"

	"github.com/sokinpui/hatch/model"
)

// DefaultLanguage labels fenced blocks that declare no language.
const DefaultLanguage = "text"

// fenceRegex matches ```lang\n...``` lazily. The tag also accepts + . # and -
// so that c++, objective-c and c# are kept whole. An opening fence without a
// closing one never matches, so it stays part of the surrounding text.
var fenceRegex = regexp.MustCompile("```([a-zA-Z0-9_+.#-]+)?\\n([\\s\\S]*?)```")

// Segments splits a raw assistant response into alternating prose and code
// segments, in input order.
func Segments(raw string) []model.Segment {
	var segments []model.Segment
	last := 0

	for _, m := range fenceRegex.FindAllStringSubmatchIndex(raw, -1) {
		if before := strings.TrimSpace(raw[last:m[0]]); before != "" {
			segments = append(segments, model.Segment{Kind: model.SegmentText, Content: before})
		}

		lang := DefaultLanguage
		if m[2] >= 0 {
			lang = raw[m[2]:m[3]]
		}
		segments = append(segments, model.Segment{
			Kind:     model.SegmentCode,
			Language: lang,
			Content:  strings.TrimSpace(raw[m[4]:m[5]]),
		})
		last = m[1]
	}

	if rest := strings.TrimSpace(raw[last:]); rest != "" {
		segments = append(segments, model.Segment{Kind: model.SegmentText, Content: rest})
	}

	if len(segments) == 0 {
		return []model.Segment{{Kind: model.SegmentText, Content: strings.TrimSpace(raw)}}
	}
	return segments
}

// LastCode returns the last code segment of raw, if any.
func LastCode(raw string) (model.Segment, bool) {
	segments := Segments(raw)
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i].Kind == model.SegmentCode {
			return segments[i], true
		}
	}
	return model.Segment{}, false
}
