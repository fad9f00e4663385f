package language

import "regexp"

// pattern is one scoring rule for a language. Unicode block rules weigh
// double because a single script hit is far stronger evidence than a stop
// word shared across Latin languages.
type pattern struct {
	re    *regexp.Regexp
	block bool
}

// languagePatterns holds the detection rules per supported language code.
// Latin-script languages use word-boundary stop-word and greeting lists;
// non-Latin languages use their Unicode block plus common greetings.
var languagePatterns = map[string][]pattern{
	"en": {
		{re: regexp.MustCompile(`(?i)\b(the|and|or|but|in|on|at|to|for|of|with|by|is|are|was|were|be|been|have|has|had|do|does|did|will|would|could|should|may|might|must|can)\b`)},
		{re: regexp.MustCompile(`(?i)\b(hello|hi|hey|good|morning|afternoon|evening|night|thank|you|please|sorry|excuse|me|pardon)\b`)},
	},
	"es": {
		{re: regexp.MustCompile(`(?i)\b(el|la|los|las|un|una|unos|unas|y|o|pero|en|con|por|para|desde|hasta|ante|bajo|contra|de|durante|entre|hacia|mediante|sobre|tras|sin)\b`)},
		{re: regexp.MustCompile(`(?i)\b(hola|gracias|favor|perdón|disculpa|buenos|días|tardes|noches|adiós|saludos|necesito|ayuda)\b`)},
	},
	"fr": {
		{re: regexp.MustCompile(`(?i)\b(le|la|les|un|une|des|et|ou|mais|dans|sur|à|pour|avec|par|est|sont|été|avoir|fait|faire|dire|pouvoir|vouloir|devoir|savoir|venir|aller|voir|parler|prendre|mettre|donner)\b`)},
		{re: regexp.MustCompile(`(?i)\b(bonjour|merci|s'il|vous|plaît|pardon|excusez|bon|matin|soir|bonsoir|au|revoir|salut|besoin|aide)\b`)},
	},
	"de": {
		{re: regexp.MustCompile(`(?i)\b(der|die|das|ein|eine|einer|eines|einem|einen|und|oder|aber|in|an|auf|zu|für|von|mit|bei|ist|sind|war|waren|sein|haben|hatte|können|müssen|dürfen|mögen|sollen|wollen)\b`)},
		{re: regexp.MustCompile(`(?i)\b(hallo|danke|bitte|entschuldigung|guten|morgen|tag|abend|nacht|tschüss|auf|wiedersehen|hilfe|brauche)\b`)},
	},
	"pt": {
		{re: regexp.MustCompile(`(?i)\b(o|a|os|as|um|uma|uns|umas|e|ou|mas|em|no|na|nos|nas|para|por|com|de|do|da|dos|das|após|até|contra|desde|durante|entre|mediante|perante|sem|sobre|sob)\b`)},
		{re: regexp.MustCompile(`(?i)\b(olá|obrigado|obrigada|favor|desculpe|bom|dia|tarde|noite|adeus|até|logo|saudações|preciso|ajuda)\b`)},
	},
	"ar": {
		{re: regexp.MustCompile(`[\x{0600}-\x{06FF}]`), block: true},
		{re: regexp.MustCompile(`(مرحبا|شكرا|من|فضلك|عذرا|صباح|الخير|مساء|وداعا|تحية|مساعدة)`)},
	},
	"hi": {
		{re: regexp.MustCompile(`[\x{0900}-\x{097F}]`), block: true},
		{re: regexp.MustCompile(`(नमस्ते|धन्यवाद|कृपया|क्षमा|सुबह|शाम|अलविदा|नमस्कार|मदद)`)},
	},
	"zh": {
		{re: regexp.MustCompile(`[\x{4E00}-\x{9FFF}]`), block: true},
		{re: regexp.MustCompile(`(你好|谢谢|请|对不起|早上|下午|晚上|再见|问候|帮助)`)},
	},
}

// SupportedCodes returns the language codes the pattern tables cover.
func SupportedCodes() []string {
	codes := make([]string, 0, len(languagePatterns))
	for code := range languagePatterns {
		codes = append(codes, code)
	}
	return codes
}
