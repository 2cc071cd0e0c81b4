package webserver

import (
	"net/http"
	"time"

	"github.com/malonaz/botchat/chat"
)

// ChatViewModel is a chat list entry.
type ChatViewModel struct {
	ID       string
	Title    string
	Date     string
	Preview  string
	Selected bool
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Title: "Chats"}
	s.loadChats(r, data, "")
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	created, err := s.service.CreateChat(r.Context())
	if err != nil {
		s.log.Errorw("creating chat", "error", err)
		data := &PageData{Title: "Chats", CreateError: true}
		s.loadChats(r, data, "")
		s.render(w, http.StatusBadGateway, data)
		return
	}
	http.Redirect(w, r, "/chat/"+created.ID+"/", http.StatusSeeOther)
}

// loadChats fills the chat list. A failed fetch is shown next to whatever else the page holds.
func (s *Server) loadChats(r *http.Request, data *PageData, selectedID string) {
	chats, err := s.service.ListChats(r.Context())
	if err != nil {
		s.log.Errorw("listing chats", "error", err)
		data.ChatsErr = err.Error()
		return
	}
	now := time.Now()
	data.Chats = make([]ChatViewModel, 0, len(chats))
	for _, c := range chats {
		data.Chats = append(data.Chats, ChatViewModel{
			ID:       c.ID,
			Title:    chat.Title(c.ID),
			Date:     chat.RelativeDate(c.UpdatedAt, now),
			Preview:  chat.Preview(c, s.previewLength),
			Selected: c.ID == selectedID,
		})
	}
}
