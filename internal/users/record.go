package users

// Document is one stored record. Strict mode writes only name, email
// and age; loose mode stores whatever the client sent.
type Document map[string]any

// Field names every record is expected to carry.
const (
	FieldID    = "_id"
	FieldName  = "name"
	FieldEmail = "email"
	FieldAge   = "age"
)

var profileFields = []string{FieldName, FieldEmail, FieldAge}

// RequireAll returns a document holding exactly name, email and age, or
// ErrMissingFields if any of them is absent or empty.
func RequireAll(body Document) (Document, error) {
	out := make(Document, len(profileFields))
	for _, f := range profileFields {
		v, ok := body[f]
		if !ok || !present(v) {
			return nil, ErrMissingFields
		}
		out[f] = v
	}
	return out, nil
}

// PickPresent returns the subset of name, email and age that body sets to
// a non-empty value. Other keys are ignored.
func PickPresent(body Document) (Document, error) {
	out := make(Document, len(profileFields))
	for _, f := range profileFields {
		if v, ok := body[f]; ok && present(v) {
			out[f] = v
		}
	}
	if len(out) == 0 {
		return nil, ErrNoFields
	}
	return out, nil
}

// Passthrough copies body verbatim, dropping the immutable _id key.
func Passthrough(body Document) Document {
	out := make(Document, len(body))
	for k, v := range body {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	return out
}

// present treats null, "", 0 and false as missing, the same way the
// browser client's form does.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
