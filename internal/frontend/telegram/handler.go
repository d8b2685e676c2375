package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	errorMsg        = "An error occurred while processing your request. Please try again."
	resetMsg        = "Session reset. Favorites, watchlist and history are cleared."
	unknownMsg      = "Unknown command. Send /help for the list."
	noListMsg       = "Nothing to page through yet. Try /popular or /search first."

	helpMsg = `MovieDeck - browse movies from TMDb.

/popular [page] - popular movies
/top [page] - top rated movies
/now [page] - now playing
/upcoming [page] - upcoming releases
/search <title> - search by title (or just send the title)
/movie <id> - movie details
/genres - list genres
/genre <id> [page] - browse a genre
/next, /prev - page through the last list
/favorites, /watchlist - your saved movies
/reset - start over`

	maxButtonLabel = 30 // max characters in inline keyboard button label
	maxSimilar     = 5  // similar-movie buttons under a detail card
)

// Callback data prefixes.
const (
	cbMovie = "movie:"
	cbFav   = "fav:"
	cbWatch = "watch:"
	cbGenre = "genre:"
	cbPage  = "page:"
)

// categoryCommands maps list commands to curated lists.
var categoryCommands = map[string]catalog.Category{
	"popular":  catalog.CategoryPopular,
	"top":      catalog.CategoryTopRated,
	"now":      catalog.CategoryNowPlaying,
	"upcoming": catalog.CategoryUpcoming,
}

// outgoing is a message rendered both as MarkdownV2 and as plain text.
type outgoing struct {
	md     string
	plain  string
	markup *tgbotapi.InlineKeyboardMarkup
}

func render(markup *tgbotapi.InlineKeyboardMarkup, fn func(st style) string) outgoing {
	return outgoing{md: fn(mdStyle), plain: fn(plainStyle), markup: markup}
}

// parseCommand splits "/cmd@bot args" into ("cmd", "args"). Text without a
// leading slash yields an empty command.
func parseCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// parsePage reads an optional page argument; anything else means page 1.
func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// parseID reads a positive movie or genre id.
func parseID(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	cmd, args := parseCommand(msg.Text)
	if cmd == "" && args == "" {
		return
	}

	switch cmd {
	case "start", "help":
		b.sendText(chatID, helpMsg)
		return
	case "reset":
		b.sessions.reset(userID)
		b.sendText(chatID, resetMsg)
		return
	}

	sess := b.sessions.getOrCreate(userID, b.newSession)
	if sess == nil {
		b.logger.Error("failed to create session", slog.Int64("user_id", userID))
		b.sendText(chatID, errorMsg)
		return
	}

	b.typing(chatID)

	if cat, ok := categoryCommands[cmd]; ok {
		b.showCategory(ctx, chatID, sess, cat, parsePage(args))
		return
	}

	switch cmd {
	case "", "search":
		if args == "" {
			b.sendText(chatID, "Usage: /search <title>")
			return
		}
		b.showSearch(ctx, chatID, sess, args)
	case "movie":
		id, ok := parseID(args)
		if !ok {
			b.sendText(chatID, "Usage: /movie <id>")
			return
		}
		b.showMovie(ctx, chatID, sess, id)
	case "genres":
		b.showGenres(ctx, chatID, sess)
	case "genre":
		idArg, pageArg, _ := strings.Cut(args, " ")
		id, ok := parseID(idArg)
		if !ok {
			b.sendText(chatID, "Usage: /genre <id> [page]. See /genres for ids.")
			return
		}
		b.showGenre(ctx, chatID, sess, id, parsePage(pageArg))
	case "next", "prev":
		if out, ok := b.turnPage(ctx, chatID, sess, cmd == "next"); ok {
			b.send(chatID, out)
		}
	case "favorites":
		ids := sess.library.Favorites()
		b.send(chatID, render(nil, func(st style) string {
			return formatLibrary(st, "Favorites", ids, sess.store)
		}))
	case "watchlist":
		ids := sess.library.Watchlist()
		b.send(chatID, render(nil, func(st style) string {
			return formatLibrary(st, "Watchlist", ids, sess.store)
		}))
	default:
		b.sendText(chatID, unknownMsg)
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	if !b.sessions.isAllowed(userID) {
		b.answer(cq.ID, "")
		return
	}
	sess := b.sessions.getOrCreate(userID, b.newSession)
	if sess == nil {
		b.answer(cq.ID, "")
		b.sendText(chatID, errorMsg)
		return
	}

	switch {
	case strings.HasPrefix(cq.Data, cbMovie):
		b.answer(cq.ID, "")
		if id, ok := parseID(strings.TrimPrefix(cq.Data, cbMovie)); ok {
			b.typing(chatID)
			b.showMovie(ctx, chatID, sess, id)
		}

	case strings.HasPrefix(cq.Data, cbFav), strings.HasPrefix(cq.Data, cbWatch):
		b.toggle(chatID, msgID, cq, sess)

	case strings.HasPrefix(cq.Data, cbGenre):
		b.answer(cq.ID, "")
		if id, ok := parseID(strings.TrimPrefix(cq.Data, cbGenre)); ok {
			b.typing(chatID)
			b.showGenre(ctx, chatID, sess, id, 1)
		}

	case strings.HasPrefix(cq.Data, cbPage):
		b.answer(cq.ID, "")
		next := strings.TrimPrefix(cq.Data, cbPage) == "next"
		if out, ok := b.turnPage(ctx, chatID, sess, next); ok {
			b.edit(chatID, msgID, out)
		}

	default:
		b.answer(cq.ID, "")
	}
}

// toggle flips favorite or watchlist membership and refreshes the buttons.
func (b *Bot) toggle(chatID int64, msgID int, cq *tgbotapi.CallbackQuery, sess *session) {
	var (
		id     int
		ok     bool
		notice string
	)
	if rest, found := strings.CutPrefix(cq.Data, cbFav); found {
		if id, ok = parseID(rest); ok {
			notice = "Removed from favorites"
			if sess.library.ToggleFavorite(id) {
				notice = "Added to favorites"
			}
		}
	} else if rest, found := strings.CutPrefix(cq.Data, cbWatch); found {
		if id, ok = parseID(rest); ok {
			notice = "Removed from watchlist"
			if sess.library.ToggleWatchlist(id) {
				notice = "Added to watchlist"
			}
		}
	}
	b.answer(cq.ID, notice)
	if !ok {
		return
	}

	kb := detailKeyboard(id, sess.library, sess.store.Collection(store.Similar))
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, kb)
	if _, err := b.api.Request(edit); err != nil && !notModified(err) {
		b.logger.Debug("failed to update keyboard",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// showCategory loads and sends one page of a curated list.
func (b *Bot) showCategory(ctx context.Context, chatID int64, sess *session, cat catalog.Category, page int) {
	if err := sess.ctrl.LoadCategory(ctx, cat, page); err != nil {
		b.reportError(chatID, sess, err)
		return
	}
	name, _ := store.ForCategory(cat)
	sess.setLast(name, cat.Title())
	b.send(chatID, b.listMessage(sess, name, cat.Title()))
}

// showSearch runs a title search and sends the results.
func (b *Bot) showSearch(ctx context.Context, chatID int64, sess *session, query string) {
	if err := sess.ctrl.Search(ctx, query, 1); err != nil {
		b.reportError(chatID, sess, err)
		return
	}
	heading := fmt.Sprintf("Results for %q", strings.TrimSpace(query))
	sess.setLast(store.Search, heading)
	b.send(chatID, b.listMessage(sess, store.Search, heading))
}

// showGenre browses a genre. Genre names are fetched once per session.
func (b *Bot) showGenre(ctx context.Context, chatID int64, sess *session, genreID, page int) {
	if len(sess.store.Genres()) == 0 {
		if err := sess.ctrl.LoadGenres(ctx); err != nil {
			config.LoggerFromContext(ctx).Debug("genre names unavailable", slog.String("error", err.Error()))
		}
	}
	if err := sess.ctrl.BrowseGenre(ctx, genreID, page); err != nil {
		b.reportError(chatID, sess, err)
		return
	}
	heading := sess.store.GenreName(genreID)
	if heading == "" {
		heading = fmt.Sprintf("Genre %d", genreID)
	}
	sess.setLast(store.Search, heading)
	b.send(chatID, b.listMessage(sess, store.Search, heading))
}

// showGenres sends the genre list with a button per genre.
func (b *Bot) showGenres(ctx context.Context, chatID int64, sess *session) {
	if err := sess.ctrl.LoadGenres(ctx); err != nil {
		b.reportError(chatID, sess, err)
		return
	}
	genres := sess.store.Genres()
	b.send(chatID, render(genreKeyboard(genres), func(st style) string {
		return formatGenres(st, genres)
	}))
}

// showMovie sends the poster and the detail card with library toggles.
func (b *Bot) showMovie(ctx context.Context, chatID int64, sess *session, id int) {
	d, err := sess.ctrl.LoadMovie(ctx, id)
	if err != nil {
		b.reportError(chatID, sess, err)
		return
	}
	b.sendPoster(chatID, d.PosterPath, d.Title)

	kb := detailKeyboard(d.ID, sess.library, sess.store.Collection(store.Similar))
	b.send(chatID, render(&kb, func(st style) string {
		return formatMovieDetail(st, d, b.appURL)
	}))
}

// turnPage moves the session's last list one page and renders it. It reports
// false when there was nothing to page or the load failed.
func (b *Bot) turnPage(ctx context.Context, chatID int64, sess *session, next bool) (outgoing, bool) {
	name, heading := sess.last()
	if name == "" {
		b.sendText(chatID, noListMsg)
		return outgoing{}, false
	}
	var err error
	if next {
		err = sess.ctrl.NextPage(ctx)
	} else {
		err = sess.ctrl.PrevPage(ctx)
	}
	if err != nil {
		b.reportError(chatID, sess, err)
		return outgoing{}, false
	}
	return b.listMessage(sess, name, heading), true
}

// listMessage renders a stored collection with selection and paging buttons.
func (b *Bot) listMessage(sess *session, name store.CollectionName, heading string) outgoing {
	movies := sess.store.Collection(name)
	view := sess.store.View()
	kb := listKeyboard(movies, sess.ctrl.HasPrevPage(), sess.ctrl.HasNextPage())
	return render(kb, func(st style) string {
		return formatMovieList(st, heading, movies, view, sess.library)
	})
}

// reportError tells the user why a load failed. Superseded loads are silent;
// a newer request from the same user is already on its way.
func (b *Bot) reportError(chatID int64, sess *session, err error) {
	if errors.Is(err, discover.ErrSuperseded) {
		return
	}
	msg := discover.MsgLoadFailed
	if v := sess.store.View(); v.Error != nil {
		msg = *v.Error
	}
	b.sendText(chatID, msg)
}

// listKeyboard has one button per movie plus a navigation row.
// Returns nil when there is nothing to press.
func listKeyboard(movies []catalog.Movie, hasPrev, hasNext bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range movies {
		label := discover.Truncate(fmt.Sprintf("%d. %s", i+1, m.Title), maxButtonLabel)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbMovie+strconv.Itoa(m.ID)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if hasPrev {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("« Prev", cbPage+"prev"))
	}
	if hasNext {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next »", cbPage+"next"))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// detailKeyboard has the library toggles and a few similar movies.
func detailKeyboard(id int, lib *store.Library, similar []catalog.Movie) tgbotapi.InlineKeyboardMarkup {
	fav := "☆ Favorite"
	if lib.IsFavorite(id) {
		fav = "★ Favorite"
	}
	watch := "+ Watchlist"
	if lib.IsInWatchlist(id) {
		watch = "✓ Watchlist"
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fav, cbFav+strconv.Itoa(id)),
			tgbotapi.NewInlineKeyboardButtonData(watch, cbWatch+strconv.Itoa(id)),
		),
	}
	for _, m := range similar[:min(len(similar), maxSimilar)] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				discover.Truncate("Similar: "+m.Title, maxButtonLabel),
				cbMovie+strconv.Itoa(m.ID),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// genreKeyboard lays genres out two per row.
func genreKeyboard(genres []catalog.Genre) *tgbotapi.InlineKeyboardMarkup {
	if len(genres) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(genres); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for _, g := range genres[i:min(i+2, len(genres))] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(g.Name, cbGenre+strconv.Itoa(g.ID)))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// send delivers out as MarkdownV2, retrying as plain text if Telegram
// rejects the markup.
func (b *Bot) send(chatID int64, out outgoing) {
	msg := tgbotapi.NewMessage(chatID, out.md)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if out.markup != nil {
		msg.ReplyMarkup = *out.markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		plain := tgbotapi.NewMessage(chatID, out.plain)
		if out.markup != nil {
			plain.ReplyMarkup = *out.markup
		}
		if _, err := b.api.Send(plain); err != nil {
			b.logger.Error("failed to send message",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// edit replaces a message's text and buttons in place.
func (b *Bot) edit(chatID int64, msgID int, out outgoing) {
	build := func(text, mode string) tgbotapi.EditMessageTextConfig {
		e := tgbotapi.NewEditMessageText(chatID, msgID, text)
		e.ParseMode = mode
		e.ReplyMarkup = out.markup
		return e
	}
	_, err := b.api.Send(build(out.md, tgbotapi.ModeMarkdownV2))
	if err == nil || notModified(err) {
		return
	}
	b.logger.Warn("failed to edit markdown, retrying plain",
		slog.String("error", err.Error()),
	)
	if _, err := b.api.Send(build(out.plain, "")); err != nil && !notModified(err) {
		b.logger.Error("failed to edit message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendPoster sends the poster as a photo; Telegram fetches the URL itself.
// Movies without artwork send nothing.
func (b *Bot) sendPoster(chatID int64, posterPath *string, caption string) {
	if b.images == nil || posterPath == nil {
		return
	}
	url := b.images.ResolveImageURL(posterPath, catalog.KindPoster, catalog.SizeLarge)
	if url == "" || url == catalog.PlaceholderImage {
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Debug("failed to send poster",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}

// answer acknowledges a callback query, optionally with a toast.
func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Debug("failed to answer callback", slog.String("error", err.Error()))
	}
}

// typing shows the typing indicator.
func (b *Bot) typing(chatID int64) {
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
