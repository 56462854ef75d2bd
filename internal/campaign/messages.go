package campaign

// First messages spoken by the assistant when the callee answers, keyed by
// roster language code. Unknown codes fall back to English.

const DefaultLanguage = "en"

var languageNames = map[string]string{
	"en": "English",
	"ka": "Kannada",
	"ta": "Tamil",
	"te": "Telugu",
	"ma": "Malayalam",
}

var firstMessages = map[string]string{
	"en": "Hello, this is a payment reminder from your loan provider. Your EMI instalment is due. Please make the payment at the earliest to avoid late charges. Thank you.",
	"ka": "ನಮಸ್ಕಾರ, ಇದು ನಿಮ್ಮ ಸಾಲ ಸಂಸ್ಥೆಯಿಂದ ಪಾವತಿ ನೆನಪೋಲೆ. ನಿಮ್ಮ EMI ಕಂತು ಬಾಕಿ ಇದೆ. ತಡ ಶುಲ್ಕ ತಪ್ಪಿಸಲು ದಯವಿಟ್ಟು ಶೀಘ್ರವೇ ಪಾವತಿಸಿ. ಧನ್ಯವಾದಗಳು.",
	"ta": "வணக்கம், இது உங்கள் கடன் நிறுவனத்தின் கட்டண நினைவூட்டல். உங்கள் EMI தவணை நிலுவையில் உள்ளது. தாமதக் கட்டணத்தைத் தவிர்க்க விரைவில் செலுத்தவும். நன்றி.",
	"te": "నమస్కారం, ఇది మీ రుణ సంస్థ నుండి చెల్లింపు గుర్తు. మీ EMI వాయిదా బాకీ ఉంది. ఆలస్య రుసుము తప్పించుకోవడానికి దయచేసి త్వరగా చెల్లించండి. ధన్యవాదాలు.",
	"ma": "നമസ്കാരം, ഇത് നിങ്ങളുടെ വായ്പാ സ്ഥാപനത്തിൽ നിന്നുള്ള പേയ്മെന്റ് ഓർമ്മപ്പെടുത്തലാണ്. നിങ്ങളുടെ EMI തവണ ബാക്കിയാണ്. പിഴ ഒഴിവാക്കാൻ ദയവായി ഉടൻ അടയ്ക്കുക. നന്ദി.",
}

// FirstMessage returns the greeting for the language, falling back to English
// when the code is not recognised.
func FirstMessage(lang string) string {
	if msg, ok := firstMessages[lang]; ok {
		return msg
	}
	return firstMessages[DefaultLanguage]
}

// LanguageName returns the human-readable name of a roster language code.
func LanguageName(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}
