package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/app/gallery"
)

type AlbumService struct {
	store *gallery.Store
	index gallery.IndexPolicy
	order gallery.Order
}

func NewAlbumService(store *gallery.Store, index gallery.IndexPolicy, order gallery.Order) *AlbumService {
	return &AlbumService{store: store, index: index, order: order}
}

// Create arma la galeria con las imagenes del comando; lo demas se ignora.
func (s *AlbumService) Create(_ context.Context, c *command.Ctx) (command.Action, error) {
	media, err := gallery.Classify(c.Attachments(), s.index)
	if errors.Is(err, gallery.ErrInsufficientMedia) {
		return nil, command.Reject(command.ReasonInsufficientMedia,
			fmt.Sprintf("An album needs at least %d images (gif, png, jpg, webp, bmp or tiff).", gallery.MinMedia), err)
	}
	if err != nil {
		return nil, err
	}

	sess, view, err := s.store.Create(c.String("title"), media, s.order)
	if err != nil {
		return nil, fmt.Errorf("album: %w", err)
	}
	c.Log.Info("album created", "session", sess.ID(), "pages", sess.Len())
	return command.ReplyWithSession{View: view}, nil
}
