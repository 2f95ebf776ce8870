package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// the violated bound under "bound" or a property name under "name").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	get := func(k string) string {
		if data == nil {
			return ""
		}
		return data[k]
	}
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			if e := get("expected"); e != "" {
				return "expected " + e
			}
			return "invalid type"
		case "too_small":
			if get("exclusive") != "" {
				return "expected " + get("what") + " greater than " + get("bound")
			}
			return "expected " + get("what") + " greater than or equal to " + get("bound")
		case "too_big":
			if get("exclusive") != "" {
				return "expected " + get("what") + " less than " + get("bound")
			}
			return "expected " + get("what") + " less than or equal to " + get("bound")
		case "multiple_of":
			return "expected a multiple of " + get("bound")
		case "too_short":
			return get("what") + " length below minimum of " + get("bound")
		case "too_long":
			return get("what") + " length above maximum of " + get("bound")
		case "unique_items":
			return "array items are not unique"
		case "too_few_properties":
			return "object property count below minimum of " + get("bound")
		case "too_many_properties":
			return "object property count above maximum of " + get("bound")
		case "required":
			return "missing required property: " + get("name")
		case "invalid_enum":
			return "not one of the allowed values"
		case "pattern":
			return "string does not match pattern: " + get("pattern")
		case "any_of_mismatch":
			return "did not match any of the expected schemas"
		case "one_of_mismatch":
			return "did not match exactly one of the expected schemas"
		case "discriminator_missing":
			return "missing discriminator property: " + get("name")
		case "discriminator_unknown":
			return "Undefined discriminator schema: " + get("value")
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
