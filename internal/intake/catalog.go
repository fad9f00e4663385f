package intake

import "fmt"

// Catalog resolves localized prompt templates keyed by (prompt key,
// language). Every key must carry an English entry; other languages may be
// partial and fall back to English structurally.
type Catalog struct {
	entries map[string]map[string]string
}

// NewCatalog builds a catalog from entries keyed [promptKey][language].
// It fails when any key lacks an English entry, so the fallback can never
// dead-end at runtime.
func NewCatalog(entries map[string]map[string]string) (*Catalog, error) {
	for key, langs := range entries {
		if langs["en"] == "" {
			return nil, fmt.Errorf("intake: catalog key %q has no en entry", key)
		}
	}
	return &Catalog{entries: entries}, nil
}

// DefaultCatalog returns the built-in prompt catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultEntries)
	if err != nil {
		// The built-in table is validated by tests; reaching this is a bug.
		panic(err)
	}
	return c
}

// Get resolves the template for a key in the requested language, falling
// back to English for unsupported languages or missing translations.
func (c *Catalog) Get(key, lang string) string {
	langs, ok := c.entries[key]
	if !ok {
		return ""
	}
	if text, ok := langs[lang]; ok && text != "" {
		return text
	}
	return langs["en"]
}

// Keys returns every prompt key the catalog defines.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

var defaultEntries = map[string]map[string]string{
	"consent": {
		"en": "Hello! I'm the legal intake assistant. I can collect the details of your matter and pass them to a lawyer. Your answers are stored for that purpose only. Do you agree to continue? (yes/no)",
		"es": "¡Hola! Soy el asistente de admisión legal. Puedo recoger los detalles de su caso y pasarlos a un abogado. Sus respuestas se guardan solo con ese fin. ¿Está de acuerdo en continuar? (sí/no)",
		"fr": "Bonjour ! Je suis l'assistant d'admission juridique. Je peux recueillir les détails de votre affaire et les transmettre à un avocat. Acceptez-vous de continuer ? (oui/non)",
		"de": "Hallo! Ich bin der Assistent für die Rechtsaufnahme. Ich erfasse die Einzelheiten Ihres Falls und leite sie an einen Anwalt weiter. Sind Sie einverstanden? (ja/nein)",
		"pt": "Olá! Sou o assistente de admissão jurídica. Posso recolher os detalhes do seu caso e passá-los a um advogado. Concorda em continuar? (sim/não)",
	},
	"consent_retry": {
		"en": "No problem. If you'd like to proceed with your intake, just reply yes. Otherwise there's nothing to do.",
		"es": "No hay problema. Si desea continuar con su admisión, responda sí. De lo contrario, no hay nada que hacer.",
	},
	"language": {
		"en": "Thanks! Which language would you like to continue in? You can also just describe your legal matter and I'll follow along.",
		"es": "¡Gracias! ¿En qué idioma desea continuar? También puede describir su asunto legal y le seguiré.",
		"fr": "Merci ! Dans quelle langue souhaitez-vous continuer ? Vous pouvez aussi décrire votre affaire et je suivrai.",
	},
	"matter_type": {
		"en": "Got it. What type of legal matter is this? For example: divorce, immigration, employment, housing.",
		"es": "Entendido. ¿Qué tipo de asunto legal es? Por ejemplo: divorcio, inmigración, laboral, vivienda.",
		"fr": "Compris. De quel type d'affaire s'agit-il ? Par exemple : divorce, immigration, travail, logement.",
		"de": "Verstanden. Um welche Art von Rechtsangelegenheit handelt es sich? Zum Beispiel: Scheidung, Einwanderung, Arbeit, Wohnen.",
		"pt": "Entendido. Que tipo de assunto jurídico é? Por exemplo: divórcio, imigração, trabalho, habitação.",
	},
	"description": {
		"en": "Thanks. Please describe what happened in a few sentences.",
		"es": "Gracias. Describa lo que ocurrió en unas pocas frases.",
		"fr": "Merci. Décrivez ce qui s'est passé en quelques phrases.",
	},
	"jurisdiction": {
		"en": "Understood. Which country and state/region does this concern?",
		"es": "Entendido. ¿A qué país y estado/región se refiere?",
		"fr": "Entendu. Quel pays et quelle région cela concerne-t-il ?",
	},
	"document_upload": {
		"en": "If you have any relevant documents or photos, send them now. Otherwise reply 'skip'.",
		"es": "Si tiene documentos o fotos relevantes, envíelos ahora. Si no, responda 'omitir'.",
		"fr": "Si vous avez des documents ou photos utiles, envoyez-les maintenant. Sinon, répondez « passer ».",
	},
	"contact_info": {
		"en": "Almost done. Please share your full name and the best email or phone number to reach you.",
		"es": "Casi terminamos. Comparta su nombre completo y el mejor correo o teléfono para contactarle.",
		"fr": "Presque fini. Indiquez votre nom complet et le meilleur e-mail ou numéro pour vous joindre.",
	},
	"summary": {
		"en": "Here is a summary of your intake:",
		"es": "Este es un resumen de su admisión:",
		"fr": "Voici un résumé de votre dossier :",
	},
	"summary_confirm": {
		"en": "Reply yes to submit this to our legal team, or tell me what to change.",
		"es": "Responda sí para enviarlo a nuestro equipo legal, o dígame qué cambiar.",
		"fr": "Répondez oui pour l'envoyer à notre équipe juridique, ou dites-moi quoi modifier.",
	},
	"summary_retry": {
		"en": "Okay. Reply yes when you're ready to submit, or tell me what to change.",
		"es": "De acuerdo. Responda sí cuando esté listo para enviar, o dígame qué cambiar.",
	},
	"handover_done": {
		"en": "Thank you! Your case has been submitted to our legal team. Your reference number is %s. A lawyer will contact you shortly.",
		"es": "¡Gracias! Su caso ha sido enviado a nuestro equipo legal. Su número de referencia es %s. Un abogado le contactará pronto.",
		"fr": "Merci ! Votre dossier a été transmis à notre équipe juridique. Votre numéro de référence est %s. Un avocat vous contactera bientôt.",
	},
	"fallback": {
		"en": "Sorry, I didn't understand that. Could you rephrase, or reply 'restart' to start over?",
		"es": "Lo siento, no he entendido. ¿Puede reformularlo o responder 'reiniciar' para empezar de nuevo?",
		"fr": "Désolé, je n'ai pas compris. Pouvez-vous reformuler, ou répondre « recommencer » pour repartir de zéro ?",
	},
	"recap_matter_type": {
		"en": "Matter type", "es": "Tipo de asunto", "fr": "Type d'affaire",
	},
	"recap_description": {
		"en": "Description", "es": "Descripción", "fr": "Description",
	},
	"recap_jurisdiction": {
		"en": "Jurisdiction", "es": "Jurisdicción", "fr": "Juridiction",
	},
	"recap_document_upload": {
		"en": "Documents", "es": "Documentos", "fr": "Documents",
	},
	"recap_contact_info": {
		"en": "Contact", "es": "Contacto", "fr": "Contact",
	},
}
