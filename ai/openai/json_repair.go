// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "strings"

// repairJSON fixes the malformed JSON small instruct models emit even in
// JSON mode: keys missing their opening quote (`{intent": ...`) and trailing
// commas before a closing brace or bracket. Text inside string values is
// copied through untouched.
func repairJSON(s string) string {
	var (
		out      strings.Builder
		inString bool
		escaped  bool
	)
	out.Grow(len(s) + 16)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out.WriteByte(ch)

		case '{', ',':
			// A key should follow. When its opening quote is missing the
			// text runs straight into `name":`; reinsert the quote and
			// consume the closing quote and colon that are already there.
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isKeyChar(s[k]) {
				k++
			}
			if k > j && k+1 < len(s) && s[k] == '"' && s[k+1] == ':' {
				out.WriteByte(ch)
				out.WriteString(s[i+1 : j])
				out.WriteByte('"')
				out.WriteString(s[j:k])
				out.WriteString(`":`)
				i = k + 1
				continue
			}

			// Trailing comma: nothing but whitespace up to the close.
			if ch == ',' && j < len(s) && (s[j] == '}' || s[j] == ']') {
				out.WriteString(s[i+1 : j])
				i = j - 1
				continue
			}

			out.WriteByte(ch)

		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isKeyChar(c byte) bool {
	return isLetter(rune(c)) || (c >= '0' && c <= '9') || c == '_'
}
