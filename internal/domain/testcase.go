package domain

// TestCase is one fuzz test case as read from the test-case file.
// Fields other than "description" are carried through untouched.
type TestCase map[string]any

// Description returns the natural-language instruction of the case, or ""
// when the field is missing or not a string.
func (tc TestCase) Description() string {
	if s, ok := tc["description"].(string); ok {
		return s
	}
	return ""
}
