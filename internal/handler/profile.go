package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/pool"
)

// handleProfile shows the shopper's personal data.
func (h *Handler) handleProfile(c tele.Context) error {
	s := h.shopper(c)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnEditProfile),
		markup.Row(btnMainMenu),
	)
	return h.send(s.Account, profileText(s.Account), markup)
}

func profileText(a *domain.Account) string {
	var lines []string

	p := a.Profile()
	name := ""
	if p.Nickname != nil {
		name = *p.Nickname
	} else if p.FirstName != nil {
		name = *p.FirstName
		if p.LastName != nil {
			name = name + " " + *p.LastName
		}
	}
	if name != "" {
		lines = append(lines, fmt.Sprintf("<b>Имя:</b> %s", name))
	}
	if p.PhoneNumber != nil {
		lines = append(lines, fmt.Sprintf("<b>Номер телефона:</b> %s", *p.PhoneNumber))
	}
	if p.HomeAddress != nil {
		lines = append(lines, fmt.Sprintf("<b>Адрес доставки:</b> %s", *p.HomeAddress))
	}
	if len(lines) == 0 {
		return "Вы пока не указали свои данные."
	}
	return strings.Join(lines, "\n")
}

// handleEditProfile starts the profile dialog: the next three messages are
// consumed by saved steps asking for name, phone and address in turn.
func (h *Handler) handleEditProfile(c tele.Context) error {
	s := h.shopper(c)

	s.RegisterStep(h.askAddressStep(s))
	s.RegisterStep(h.askPhoneStep(s))
	s.RegisterStep(h.nameStep(s))

	return h.send(s.Account, "Как к вам обращаться?")
}

func (h *Handler) nameStep(s *pool.Shopper) domain.Step {
	return func(input any) (any, error) {
		msg, ok := input.(*tele.Message)
		if !ok {
			return nil, fmt.Errorf("profile step expects a telegram message, got %T", input)
		}
		name := strings.TrimSpace(msg.Text)
		s.UpdateProfile(func(p *domain.Profile) { p.Nickname = &name })
		return nil, h.send(s.Account, "Укажите номер телефона:")
	}
}

// askPhoneStep stores the phone number and expects the address next.
func (h *Handler) askPhoneStep(s *pool.Shopper) domain.Step {
	return func(input any) (any, error) {
		msg, ok := input.(*tele.Message)
		if !ok {
			return nil, fmt.Errorf("profile step expects a telegram message, got %T", input)
		}
		phone := strings.TrimSpace(msg.Text)
		s.UpdateProfile(func(p *domain.Profile) { p.PhoneNumber = &phone })
		return nil, h.send(s.Account, "Укажите адрес доставки:")
	}
}

func (h *Handler) askAddressStep(s *pool.Shopper) domain.Step {
	return func(input any) (any, error) {
		msg, ok := input.(*tele.Message)
		if !ok {
			return nil, fmt.Errorf("profile step expects a telegram message, got %T", input)
		}
		address := strings.TrimSpace(msg.Text)
		s.UpdateProfile(func(p *domain.Profile) { p.HomeAddress = &address })
		return nil, h.send(s.Account, "Данные сохранены!\n\n"+profileText(s.Account), mainMenuMarkup())
	}
}
