package pipeline

import (
	"deskmind.app/support/internal/domain"
)

// Router picks the responder for a category. Unknown or unmapped
// categories fall through to the general responder, which must always
// be present.
type Router struct {
	responders map[domain.Category]Responder
	general    Responder
}

func NewRouter(general Responder) *Router {
	return &Router{
		responders: make(map[domain.Category]Responder),
		general:    general,
	}
}

// Register binds a specialist responder to a category. Registering the
// same category twice replaces the previous binding.
func (r *Router) Register(category domain.Category, responder Responder) {
	r.responders[category] = responder
}

func (r *Router) Route(category domain.Category) Responder {
	if responder, ok := r.responders[category]; ok {
		return responder
	}
	return r.general
}
