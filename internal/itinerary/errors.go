package itinerary

import "strings"

// Category classifies generation failures so the HTTP layer and logs can
// react without parsing provider-specific messages.
type Category string

const (
	CategoryAuth      Category = "auth"
	CategoryRateLimit Category = "rate_limit"
	CategoryTimeout   Category = "timeout"
	CategoryNetwork   Category = "network"
	CategoryBilling   Category = "billing"
	CategoryModel     Category = "model_unavailable"
	CategoryOther     Category = "other"
)

// Categorize inspects the error text for provider failure signatures. Order
// matters: the first matching pattern wins.
func Categorize(err error) Category {
	if err == nil {
		return CategoryOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case contains(msg, "api key", "authentication", "unauthorized", "401"):
		return CategoryAuth
	case contains(msg, "rate limit", "too many requests", "429"):
		return CategoryRateLimit
	case contains(msg, "timeout", "deadline exceeded"):
		return CategoryTimeout
	case contains(msg, "network", "connection", "no such host"):
		return CategoryNetwork
	case contains(msg, "insufficient credits", "billing", "quota"):
		return CategoryBilling
	case contains(msg, "model", "not found"):
		return CategoryModel
	default:
		return CategoryOther
	}
}

// UserMessage maps a category to the Spanish text shown to end users.
func UserMessage(c Category) string {
	switch c {
	case CategoryAuth:
		return "Error de configuración: La clave de API no es válida o ha expirado"
	case CategoryRateLimit:
		return "Límite de solicitudes a la IA alcanzado. Por favor, intenta de nuevo más tarde"
	case CategoryTimeout:
		return "La solicitud a la IA ha excedido el tiempo límite. Por favor, intenta de nuevo"
	case CategoryNetwork:
		return "Error de conexión con el servicio de IA. Verifica tu conexión a internet"
	case CategoryBilling:
		return "Créditos insuficientes en la cuenta del proveedor de IA. Verifica tu suscripción"
	case CategoryModel:
		return "El modelo de IA no está disponible temporalmente. Por favor, intenta de nuevo más tarde"
	default:
		return "Error al generar itinerario con IA"
	}
}

func contains(msg string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
