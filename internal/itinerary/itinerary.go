package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goitinerary/internal/contextprep"
	"github.com/hyperifyio/goitinerary/internal/llm"
)

// Params describes one itinerary request plus the research context collected
// for it.
type Params struct {
	OriginCountry string
	Destination   string
	Days          int
	Budget        float64
	TravelStyle   string
	Preferences   []string
	Currency      string
	Context       string
	Sources       []contextprep.Source
}

// Result is a generated itinerary with the sources that informed it.
type Result struct {
	Text    string
	Sources []contextprep.Source
}

const (
	// DefaultModel targets an OpenAI-compatible chat model.
	DefaultModel = "openai/gpt-5-chat"
	// Low temperature keeps day plans consistent between regenerations;
	// the token ceiling leaves room for multi-week itineraries.
	generationTemperature = 0.5
	generationMaxTokens   = 16000

	// minUsefulChars rejects replies too short to be a real itinerary.
	minUsefulChars = 300
	// refusalMarker is the generic apology some models emit instead of
	// producing content. It invalidates the reply.
	refusalMarker = "Lo sentimos, no hemos podido generar un itinerario detallado"
)

const systemPrompt = "Eres un asistente experto en planificación de viajes con años de experiencia. " +
	"Creas itinerarios personalizados y detallados con información específica sobre lugares, horarios, costos y consejos prácticos. " +
	"Utiliza las fuentes proporcionadas para citar información específica y siempre proporciona detalles concretos y útiles para el viajero."

// Generator turns prepared context into a full itinerary via a chat model.
type Generator struct {
	Client llm.Client
	Model  string
}

// Generate calls the model once and validates the reply. Errors carry a
// Spanish user-facing message classified by Categorize.
func (g *Generator) Generate(ctx context.Context, p Params) (Result, error) {
	if g.Client == nil {
		return Result{}, errors.New("llm client not configured")
	}
	model := g.Model
	if model == "" {
		model = DefaultModel
	}

	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(p)},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", UserMessage(Categorize(err)), err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("el modelo no devolvió ninguna respuesta")
	}
	text := resp.Choices[0].Message.Content
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minUsefulChars {
		return Result{}, errors.New("el itinerario generado es demasiado corto o incompleto")
	}
	if strings.Contains(text, refusalMarker) {
		return Result{}, errors.New("el itinerario generado contiene el mensaje de error genérico")
	}
	return Result{Text: text, Sources: p.Sources}, nil
}

// Prompt renders the full generation instruction set for one request.
func Prompt(p Params) string {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	symbol := currencySymbol(currency)
	origin := p.OriginCountry
	if origin == "" {
		origin = "No especificado"
	}

	var b strings.Builder
	b.WriteString("# INSTRUCCIONES PARA GENERAR ITINERARIO DE VIAJE\n\n")
	fmt.Fprintf(&b, "Eres un experto planificador de viajes con años de experiencia creando itinerarios personalizados y detallados. "+
		"Tu tarea es generar un itinerario completo para %s por %d días.\n\n", p.Destination, p.Days)

	b.WriteString("## DATOS DEL VIAJE\n")
	fmt.Fprintf(&b, "- **País de origen:** %s\n", origin)
	fmt.Fprintf(&b, "- **Destino:** %s\n", p.Destination)
	fmt.Fprintf(&b, "- **Duración:** %d días\n", p.Days)
	fmt.Fprintf(&b, "- **Presupuesto:** %s%.0f\n", symbol, p.Budget)
	fmt.Fprintf(&b, "- **Estilo de viaje:** %s\n", p.TravelStyle)
	fmt.Fprintf(&b, "- **Preferencias:** %s\n", strings.Join(p.Preferences, ", "))
	fmt.Fprintf(&b, "- **Moneda:** %s\n\n", currency)

	if p.Context != "" {
		b.WriteString("INFORMACIÓN RELEVANTE ENCONTRADA:\n")
		b.WriteString(p.Context)
		b.WriteString("\n\nFUENTES CONSULTADAS:\n")
		for _, s := range p.Sources {
			fmt.Fprintf(&b, "【%d】 %s: %s\n", s.Index, s.Title, s.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString(`## REQUISITOS DEL ITINERARIO

Debes generar un itinerario extremadamente detallado con las siguientes secciones:

## 1. DATOS DE VIAJE BÁSICOS
- Origen y destino, fechas recomendadas según clima y temporada, duración y número ideal de viajeros.

## 2. PRESUPUESTO DETALLADO
- Presupuesto total y por persona, análisis de suficiencia, y desglose por categoría
  (alojamiento, comidas, transporte, actividades, gastos varios).

## 3. TRANSPORTE
- Transporte internacional desde el país de origen y movilidad en destino con costos estimados.

## 4. ALOJAMIENTO
- Tipo recomendado según estilo y presupuesto, zonas ideales y hoteles específicos con precios aproximados.

## 5. ITINERARIO DÍA POR DÍA
Para cada día: mañana (9:00 - 13:00), tarde (14:00 - 18:00) y noche (19:00 - 23:00).
Para cada actividad: nombre, descripción detallada, duración, costo estimado, ubicación
específica, consejos útiles y cita a la fuente usando el formato 【X】.

## 6. ACTIVIDADES Y EXPERIENCIAS
- Excursiones recomendadas, eventos especiales y costos totales de actividades.

## 7. DOCUMENTACIÓN Y REQUISITOS
- Pasaporte, visado, vacunas, seguro de viaje y otros requisitos del destino.

## 8. EXTRAS Y PREFERENCIAS
- Idioma, restricciones alimenticias, flexibilidad y tipo de experiencia.

### Secciones Especiales
- **CLIMA Y VESTIMENTA:** Recomendaciones según la época del año
- **TRANSPORTE LOCAL:** Opciones y costos de movilidad
- **GASTRONOMÍA:** Platos típicos y recomendaciones de restaurantes
- **CONSEJOS DE SEGURIDAD:** Recomendaciones específicas para el destino
- **LUGARES RECOMENDADOS PARA VISITAR:** Lista de lugares turísticos con descripciones

`)

	if p.Days > 14 {
		b.WriteString(`## FORMATO PARA VIAJES LARGOS
Para viajes de más de dos semanas, organiza el itinerario por semanas en lugar de solo días,
con un encabezado por semana y rangos de días por ciudad o región.

`)
	}

	b.WriteString("## ESTILO Y TONO\n")
	b.WriteString("- **Lenguaje:** Español claro y conciso\n")
	b.WriteString("- **Tono:** Amigable pero profesional, como un experto en viajes\n")
	b.WriteString("- **Formato:** Usa Markdown para estructurar el contenido (títulos, listas, negritas)\n")
	fmt.Fprintf(&b, "- **Extensión:** Detallado y completo, aproximadamente %d palabras totales\n\n", targetWords(p.Days))

	b.WriteString(`## RESTRICCIONES
- No inventes precios o datos específicos si no están en las fuentes
- Usa las citas 【X】 para referenciar la información obtenida
- Adapta el itinerario al presupuesto y estilo de viaje indicados
- Sé realista sobre tiempos de desplazamiento entre actividades
- Distribuye el presupuesto de manera realista a lo largo de todos los días

Genera ahora el itinerario completo siguiendo estas instrucciones.`)

	return b.String()
}

func targetWords(days int) int {
	if n := 150 * days; n < 4000 {
		return n
	}
	return 4000
}

func currencySymbol(currency string) string {
	switch currency {
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "PEN":
		return "S/"
	default:
		return currency
	}
}

// Fallback is the deterministic itinerary used when generation fails. It
// always mentions the destination, duration, budget and style so the response
// stays useful without a model.
func Fallback(p Params) string {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf(`# Itinerario para %[1]s

Hemos encontrado algunas dificultades para generar un itinerario completo, pero aquí tienes una guía básica para tu viaje:

## Información básica
- **Destino:** %[1]s
- **Duración:** %[2]d días
- **Presupuesto:** %.0[3]f %[4]s
- **Estilo de viaje:** %[5]s

## Sugerencias para planificar tu viaje

### Día 1: Llegada y aclimatación
- **Mañana:** Llegada al destino y check-in en el alojamiento
- **Tarde:** Exploración del área circundante al hotel
- **Noche:** Cena en un restaurante local cercano

### Día 2: Exploración principal
- **Mañana:** Visita al punto turístico principal de %[1]s
- **Tarde:** Exploración de museos o atracciones culturales
- **Noche:** Experiencia gastronómica local

### Día 3: Actividades opcionales
- **Mañana:** Tiempo libre para actividades según tus preferencias: %[6]s
- **Tarde:** Compras de souvenirs o productos locales
- **Noche:** Preparación para la partida

### Lugares recomendados para investigar:
1. Los principales monumentos y atracciones turísticas de %[1]s
2. Museos y centros culturales importantes
3. Parques naturales o áreas de esparcimiento
4. Restaurantes con gastronomía típica
5. Mercados locales para conocer la cultura auténtica

### Consejos prácticos:
- Investiga el clima para saber qué ropa empacar
- Aprende algunas frases básicas del idioma local
- Verifica si necesitas visas o requisitos de entrada
- Considera comprar un seguro de viaje
- Investiga opciones de transporte local

Te recomendamos intentar generar el itinerario nuevamente más tarde para obtener una planificación más detallada.`,
		p.Destination, p.Days, p.Budget, currency, p.TravelStyle, strings.Join(p.Preferences, ", "))
}

// BasicInfo is appended to the research context when too little content was
// collected, so generation still has something destination-shaped to anchor on.
func BasicInfo(destination string, days int, budget float64, currency, travelStyle string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf(`
# Información básica sobre %[1]s

%[1]s es un destino turístico popular con una rica historia, cultura y atracciones.
Para un viaje de %[2]d días con un presupuesto de %.0[3]f %[4]s y un estilo de viaje %[5]s,
se recomienda planificar visitas a los principales puntos de interés, disfrutar de la gastronomía local
y experimentar las actividades únicas que ofrece este destino.

## Lugares de interés común
- Sitios históricos y culturales
- Museos y galerías de arte
- Parques y áreas naturales
- Mercados locales y zonas comerciales
- Restaurantes con gastronomía típica

## Consejos generales
- Investigar el clima y empacar ropa adecuada
- Aprender frases básicas del idioma local
- Respetar las costumbres y tradiciones locales
- Llevar efectivo y tarjetas de crédito
- Contratar un seguro de viaje
`, destination, days, budget, currency, travelStyle)
}
