// Package locales holds the language-keyed strings consulted by every
// component that talks to the user or to a model in a given language.
package locales

type Language string

const (
	Italian Language = "Italiano"
	English Language = "English"
)

type Strings struct {
	SystemInstruction   string
	PromptTemplate      string
	VisionPrompt        string
	MockDescription     string
	FallbackHeader      string
	Disclaimer          string
	PlaceholderDocument string
	ServiceUnavailable  string
}

var table = map[Language]Strings{
	Italian: {
		SystemInstruction: "Sei un esperto assistente per la manutenzione industriale. " +
			"Usa il seguente contesto dai manuali tecnici per rispondere alla domanda dell'utente. " +
			"Se il contesto contiene descrizioni di immagini, fai riferimento ad esse. Rispondi in Italiano.",
		PromptTemplate: "Contesto:\n%s\n\nDomanda Utente: %s\n\nRisposta:",
		VisionPrompt: "Descrivi dettagliatamente questa immagine tecnica. " +
			"Elenca i componenti visibili, le etichette numeriche e lo scopo del diagramma. Rispondi in Italiano.",
		MockDescription:     "Descrizione simulata: Immagine tecnica di un componente meccanico (servizio non disponibile).",
		FallbackHeader:      "**Basato sul manuale:**",
		Disclaimer:          "*Nota: Questa è una risposta simulata. Installa ed esegui Ollama per risposte generate dall'IA.*",
		PlaceholderDocument: "Manuale %s: indicizzato senza contenuto estraibile. Consultare il documento originale.",
		ServiceUnavailable:  "Ollama non disponibile (%s). Uso risposta simulata.",
	},
	English: {
		SystemInstruction: "You are an expert industrial maintenance assistant. " +
			"Use the following context from technical manuals to answer the user's question. " +
			"If the context contains image descriptions, refer to them. Answer in English.",
		PromptTemplate: "Context:\n%s\n\nUser Question: %s\n\nAnswer:",
		VisionPrompt: "Describe this technical image in detail. " +
			"List visible components, numeric labels, and the purpose of the diagram. Answer in English.",
		MockDescription:     "Simulated description: Technical image of a mechanical component (service unavailable).",
		FallbackHeader:      "**Based on the manual:**",
		Disclaimer:          "*Note: This is a simulated response. Install and run Ollama for AI-generated answers.*",
		PlaceholderDocument: "Manual %s: indexed without extractable content. Refer to the original document.",
		ServiceUnavailable:  "Ollama unavailable (%s). Using simulated response.",
	},
}

// For returns the string table for lang, defaulting to Italian for any
// unrecognized value.
func For(lang Language) Strings {
	if s, ok := table[lang]; ok {
		return s
	}
	return table[Italian]
}

// Parse maps a free-form language selector to a supported Language.
func Parse(value string) Language {
	switch value {
	case string(English), "en", "english":
		return English
	default:
		return Italian
	}
}
