// Package bot turns chat updates into replies: it stores uploaded exports
// per session and answers the diagram command.
package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/render"
)

// Commands understood by the bot.
const (
	CommandStart = "/start"
	CommandHelp  = "/help"
	CommandBuild = "/build_windrose"
)

// ActionUploadPhoto is the chat action sent while a diagram is drawn.
const ActionUploadPhoto = "upload_photo"

// Reply texts.
const (
	Instructions = "Добро пожаловать в анализатор метеоданных!\n\n" +
		"Для работы отправьте CSV-файл с данными о ветре, " +
		"скачанный с сайта RP5.ru (аэропорт Храброво).\n" +
		"Файл должен быть в кодировке UTF-8.\n\n" +
		"После загрузки файла используйте команду " + CommandBuild + " " +
		"для генерации диаграммы."
	MsgNotCSV         = "Требуется файл в формате CSV."
	MsgMissingColumns = "Файл должен содержать колонки 'DD' и 'Ff'"
	MsgNoData         = "Сначала загрузите CSV-файл с данными!"
)

// Store keeps the latest upload per session.
type Store interface {
	Put(id string, set *domain.RecordSet)
	Get(id string) (*domain.RecordSet, bool)
}

// Diagrams parses uploads and renders them.
type Diagrams interface {
	Ingest(r io.Reader) (*domain.RecordSet, error)
	Render(set *domain.RecordSet) (*render.Diagram, error)
}

// Handler answers chat updates. Updates for one session must be handled in
// arrival order; different sessions may be handled concurrently.
type Handler struct {
	store    Store
	diagrams Diagrams
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(store Store, diagrams Diagrams, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		diagrams: diagrams,
		logger:   logger,
	}
}

// Handle returns the replies for upd in delivery order. Unknown commands
// produce no replies.
func (h *Handler) Handle(_ context.Context, upd domain.Update) []domain.Reply {
	var replies []domain.Reply
	reply := func(kind domain.ReplyKind) *domain.Reply {
		replies = append(replies, domain.NewReply(upd, len(replies), kind))
		return &replies[len(replies)-1]
	}

	switch upd.Kind {
	case domain.UpdateDocument:
		reply(domain.ReplyText).Text = h.handleDocument(upd)
	case domain.UpdateCommand:
		switch upd.Command {
		case CommandStart, CommandHelp:
			reply(domain.ReplyText).Text = Instructions
		case CommandBuild:
			set, ok := h.store.Get(upd.SessionID)
			if !ok {
				reply(domain.ReplyText).Text = MsgNoData
				break
			}
			reply(domain.ReplyAction).Text = ActionUploadPhoto
			d, err := h.diagrams.Render(set)
			if err != nil {
				reply(domain.ReplyText).Text = fmt.Sprintf("Ошибка генерации диаграммы: %v", err)
				break
			}
			photo := reply(domain.ReplyPhoto)
			photo.Photo = d.PNG
			photo.Caption = d.Caption
		default:
			h.logger.Debug("ignoring command", "session_id", upd.SessionID, "command", upd.Command)
		}
	}
	return replies
}

func (h *Handler) handleDocument(upd domain.Update) string {
	if !strings.HasSuffix(strings.ToLower(upd.FileName), ".csv") {
		return MsgNotCSV
	}

	set, err := h.diagrams.Ingest(bytes.NewReader(upd.Document))
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return MsgMissingColumns
		}
		return fmt.Sprintf("Ошибка обработки файла: %v", err)
	}

	h.store.Put(upd.SessionID, set)
	return fmt.Sprintf("Данные успешно загружены! Записей: %d\nДля построения розы ветров используйте %s", set.Len(), CommandBuild)
}
