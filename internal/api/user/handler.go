package user

import (
	"numeraapi/internal/api"
)

type Handler struct {
	*api.Handler
}
