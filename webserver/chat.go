package webserver

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/malonaz/botchat/chat"
)

// replyWait bounds how long a sent message shows the typing indicator.
const replyWait = 2 * time.Minute

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.renderChat(w, r, chi.URLParam(r, "chatID"), http.StatusOK, &PageData{})
}

// renderChat renders the chat list with `chatID` open. `data` may carry a draft or an error.
func (s *Server) renderChat(w http.ResponseWriter, r *http.Request, chatID string, status int, data *PageData) {
	data.Title = chat.Title(chatID)
	data.Question = chat.DeleteQuestion
	s.loadChats(r, data, chatID)

	c, err := s.service.GetChat(r.Context(), chatID)
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		data.Error = "This chat does not exist."
		s.render(w, http.StatusNotFound, data)
		return
	case err != nil:
		s.log.Errorw("getting chat", "chat", chatID, "error", err)
		data.Error = fmt.Sprintf("Error: %v", err)
		s.render(w, http.StatusBadGateway, data)
		return
	}

	data.Chat = &ChatViewModel{ID: c.ID, Title: chat.Title(c.ID)}
	messages := chat.DisplayOrder(c.Messages)
	data.Messages = buildMessages(messages)
	data.Waiting = awaitingReply(messages, r.URL.Query().Get("awaiting"), time.Now())
	s.render(w, status, data)
}

// awaitingReply reports whether `sentID`, a message whose reply was requested, is still the newest
// message and recent enough for a reply to be expected.
func awaitingReply(messages []*chat.Message, sentID string, now time.Time) bool {
	if sentID == "" || len(messages) == 0 {
		return false
	}
	last := messages[len(messages)-1]
	return last.ID == sentID && !last.IsBot && now.Sub(last.CreatedAt) < replyWait
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	var composer chat.Composer
	composer.SetInput(r.FormValue("message"))
	text, ok := composer.Begin()
	if !ok {
		http.Redirect(w, r, "/chat/"+chatID+"/", http.StatusSeeOther)
		return
	}
	result, err := s.service.SendMessage(r.Context(), chatID, text)
	composer.Finish(result, err)

	switch composer.State() {
	case chat.Failed:
		s.log.Errorw("sending message", "chat", chatID, "error", err)
		data := &PageData{
			Draft: composer.Input(),
			Error: fmt.Sprintf("Failed to send message: %v", composer.Err()),
		}
		s.renderChat(w, r, chatID, http.StatusBadGateway, data)
		return
	case chat.Settled:
		if reply := composer.Reply(); reply.Failed() {
			data := &PageData{Warning: fmt.Sprintf("The assistant could not be asked to reply: %v", reply.Err)}
			s.renderChat(w, r, chatID, http.StatusOK, data)
			return
		}
		if result != nil && result.Message != nil {
			http.Redirect(w, r, "/chat/"+chatID+"/?awaiting="+url.QueryEscape(result.Message.ID), http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/chat/"+chatID+"/", http.StatusSeeOther)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	// The browser asks for confirmation before submitting.
	confirmed := r.FormValue("confirmed") == "yes"
	err := s.service.DeleteChat(r.Context(), chatID, chat.Answered(confirmed))
	switch {
	case errors.Is(err, chat.ErrNotConfirmed):
		http.Redirect(w, r, "/chat/"+chatID+"/", http.StatusSeeOther)
		return
	case err != nil:
		s.log.Errorw("deleting chat", "chat", chatID, "error", err)
		s.renderChat(w, r, chatID, http.StatusBadGateway, &PageData{Error: fmt.Sprintf("Error: %v", err)})
		return
	}

	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
