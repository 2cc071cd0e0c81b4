package webserver

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/Masterminds/sprig/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/internal/auth"
	"github.com/malonaz/botchat/internal/configuration"
	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/internal/theme"
)

//go:embed templates
var templatesFS embed.FS

// Session is the signed-in user's session.
type Session interface {
	User() *auth.User
	SignIn(ctx context.Context, email, password string) (*auth.User, error)
	SignOut(ctx context.Context) error
}

// PageData is passed to every template.
type PageData struct {
	Title string
	User  *auth.User
	Theme theme.Theme
	// Set on the sign-in page.
	Login bool
	Email string

	Chats       []ChatViewModel
	ChatsErr    string
	CreateError bool

	Chat     *ChatViewModel
	Messages []MessageViewModel
	// Composed text put back after a failed send.
	Draft    string
	Error    string
	Warning  string
	Waiting  bool
	Question string
}

// NewServeCmd instantiates and returns the serve command.
func NewServeCmd(config *configuration.Config, service *chat.Service, session Session, themes *theme.Manager) *cobra.Command {
	var opts struct {
		Port int
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web interface for your chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := New(service, session, themes, config.Chat.PreviewLength)
			if err != nil {
				return err
			}
			return server.Start(opts.Port)
		},
	}
	cmd.Flags().IntVarP(&opts.Port, "port", "p", config.Web.Port, "Port to serve on")
	return cmd
}

// Server is the local web client.
type Server struct {
	service       *chat.Service
	session       Session
	themes        *theme.Manager
	previewLength int
	tmpl          *template.Template
	log           *zap.SugaredLogger
}

// New parses the templates and returns a server.
func New(service *chat.Service, session Session, themes *theme.Manager, previewLength int) (*Server, error) {
	funcMap := sprig.HtmlFuncMap()
	funcMap["chatTitle"] = chat.Title

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
		"templates/*.tmpl",
		"templates/includes/*.tmpl",
		"templates/pages/*.tmpl",
	)
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	return &Server{
		service:       service,
		session:       session,
		themes:        themes,
		previewLength: previewLength,
		tmpl:          tmpl,
		log:           debug.GetLogger(),
	}, nil
}

// Router returns the http handler serving every page.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(sameOrigin)

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/", s.handleInbox)
		r.Post("/logout", s.handleLogout)
		r.Post("/theme", s.handleToggleTheme)
		r.Post("/chats", s.handleCreateChat)
		r.Route("/chat/{chatID}", func(r chi.Router) {
			r.Get("/", s.handleChat)
			r.Post("/messages", s.handleSendMessage)
			r.Post("/delete", s.handleDeleteChat)
		})
	})
	return r
}

// Start serves on `port` until the server fails.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	fmt.Printf("Server starting on http://%s\n", addr)
	s.log.Infow("serving web client", "address", addr)
	return http.ListenAndServe(addr, s.Router())
}

// requireUser sends visitors without a session to the sign-in page.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.session.User() == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sameOrigin refuses unsafe requests sent by other sites.
func sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
			http.Error(w, "Cross-site request refused", http.StatusForbidden)
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" {
			if u, err := url.Parse(origin); err != nil || u.Host != r.Host {
				http.Error(w, "Cross-origin request refused", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) render(w http.ResponseWriter, status int, data *PageData) {
	data.User = s.session.User()
	data.Theme = s.themes.Current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.log.Errorw("rendering template", "error", err)
	}
}
