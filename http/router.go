package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	ServeHTTP(*Request, *Response)
}

type HandlerFunc func(request *Request, response *Response)

func (f HandlerFunc) ServeHTTP(r *Request, w *Response) {
	f(r, w)
}

// Router collects routes, groups and middleware. The table is compiled
// into a dispatcher once by Handler and is not consulted afterwards.
type Router struct {
	Path       string
	Routes     []Route
	Groups     []Router
	Middleware []MiddlewareFunc

	Logger *slog.Logger
}

func NewRouter() *Router {
	return &Router{
		Path:       "",
		Routes:     make([]Route, 0),
		Groups:     make([]Router, 0),
		Middleware: make([]MiddlewareFunc, 0),
		Logger:     slog.Default(),
	}
}

func (router *Router) Get(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	router.Any([]string{http.MethodGet}, path, handler, middleware...)
}

func (router *Router) Post(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	router.Any([]string{http.MethodPost}, path, handler, middleware...)
}

func (router *Router) Put(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	router.Any([]string{http.MethodPut}, path, handler, middleware...)
}

func (router *Router) Patch(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	router.Any([]string{http.MethodPatch}, path, handler, middleware...)
}

func (router *Router) Delete(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	router.Any([]string{http.MethodDelete}, path, handler, middleware...)
}

func (router *Router) Any(methods []string, path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	router.Routes = append(router.Routes, Route{
		Methods:    methods,
		Path:       path,
		Handler:    handler,
		Middleware: middleware,
	})
}

func (router *Router) Group(path string, groupFunc func(group *Router), middleware ...MiddlewareFunc) {
	group := NewRouter()
	group.Path = path
	group.Middleware = middleware

	groupFunc(group)

	router.Groups = append(router.Groups, *group)
}

func (router *Router) Add(middleware ...MiddlewareFunc) {
	router.Middleware = append(router.Middleware, middleware...)
}

type originalURLKey struct{}

// Handler compiles the route table into a net/http handler. Unknown paths get
// the default 404 and known paths with an unregistered method get a 405.
//
// Routing happens on the escaped path so an encoded slash stays inside its
// segment; Request.Param decodes the value.
func (router *Router) Handler() http.Handler {
	dispatcher := httprouter.New()
	router.merge(dispatcher, "", *router, nil)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		escaped := *r.URL
		escaped.Path = r.URL.EscapedPath()
		escaped.RawPath = ""

		routed := r.WithContext(context.WithValue(r.Context(), originalURLKey{}, r.URL))
		routed.URL = &escaped

		dispatcher.ServeHTTP(w, routed)
	})
}

func (router *Router) merge(dispatcher *httprouter.Router, basePath string, group Router, inherited []MiddlewareFunc) {
	chain := append(slices.Clone(inherited), group.Middleware...)

	for _, route := range group.Routes {
		path := basePath + group.Path + route.Path

		// Middleware declared first ends up outermost.
		var handler Handler = RecoverMiddleware(router.Logger)(route.Handler)
		all := append(slices.Clone(chain), route.Middleware...)
		for i := len(all) - 1; i >= 0; i-- {
			handler = all[i](handler)
		}

		for _, method := range route.Methods {
			dispatcher.Handle(method, path, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
				if original, ok := r.Context().Value(originalURLKey{}).(*url.URL); ok {
					r.URL = original
				}
				handler.ServeHTTP(&Request{original: r, params: params}, NewResponse(w))
			})
		}
	}

	// Process the branching endpoints
	for _, subGroup := range group.Groups {
		router.merge(dispatcher, basePath+group.Path, subGroup, chain)
	}
}
