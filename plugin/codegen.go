package plugin

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EmptySourceMap is returned with generated code: generated module has no
// meaningful mapping to stylesheet source.
const EmptySourceMap = `{"mappings":""}`

// JSString returns s as JavaScript string literal. JSON string literal is
// valid JavaScript, unlike Go quoted string.
func JSString(s string) string {
	// marshaling a string never fails, invalid UTF-8 is coerced
	lit, _ := json.Marshal(s)
	return string(lit)
}

// moduleCode generates ES module source for the stylesheet text.
func moduleCode(shape OutputShape, text string) (string, error) {
	lit := JSString(text)

	var b strings.Builder
	switch shape {
	case OutputShapeNative:
		b.WriteString("const sheet = new CSSStyleSheet();\n")
		fmt.Fprintf(&b, "sheet.replaceSync(%s);\n", lit)
		b.WriteString("export default sheet;\n")
	case OutputShapeInject:
		fmt.Fprintf(&b, "const css = %s;\n", lit)
		b.WriteString("if (typeof document !== \"undefined\") {\n")
		b.WriteString("\tconst style = document.createElement(\"style\");\n")
		b.WriteString("\tstyle.textContent = css;\n")
		b.WriteString("\tdocument.head.appendChild(style);\n")
		b.WriteString("}\n")
		b.WriteString("export default css;\n")
	case OutputShapeString:
		fmt.Fprintf(&b, "export default %s;\n", lit)
	default:
		return "", fmt.Errorf("unsupported output shape %s", shape)
	}
	return b.String(), nil
}
