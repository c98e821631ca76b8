package auth

import (
	"numeraapi/internal/api"
)

type Handler struct {
	*api.Handler
}
