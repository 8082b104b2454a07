package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/bz888/scribe/internal/api"
	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/export"
	"github.com/bz888/scribe/internal/logger"
	"github.com/bz888/scribe/internal/prompt"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// UI is the terminal chat front-end. It holds one API session.
type UI struct {
	app          *tview.Application
	pages        *tview.Pages
	mainFlex     *tview.Flex
	textView     *tview.TextView
	textArea     *tview.TextArea
	debugConsole *tview.TextView
	debugShown   bool

	client    *api.Client
	sessionID string
	outDir    string

	mu        sync.Mutex
	opts      prompt.Options
	reference string

	localLogger *logger.Logger
}

func New(client *api.Client, dev bool) *UI {
	u := &UI{
		app:         tview.NewApplication(),
		client:      client,
		outDir:      ".",
		opts:        prompt.Options{Tone: prompt.Default, Style: prompt.Default, Format: prompt.Default},
		debugShown:  dev,
		localLogger: logger.NewLogger("views"),
	}
	u.app.EnablePaste(true)
	u.app.EnableMouse(true)

	u.debugConsole = u.initDebugConsole()
	u.textView = u.initChatViewer()
	u.textArea = u.initChatInput()
	return u
}

// DebugConsole is the writer dev logging should go to.
func (u *UI) DebugConsole() io.Writer {
	return u.debugConsole
}

func (u *UI) initChatViewer() *tview.TextView {
	textView := tview.NewTextView().
		SetChangedFunc(u.redraw).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	textView.SetTitle("Conversation").SetBorder(true)
	textView.SetScrollable(true)
	textView.ScrollToEnd()
	return textView
}

func (u *UI) initChatInput() *tview.TextArea {
	textArea := tview.NewTextArea()
	textArea.SetTitle(u.inputTitle()).SetBorder(true)
	return textArea
}

func (u *UI) initDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(u.redraw).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// redraw schedules a draw without waiting for it. Views are written from the
// event loop as well as from background requests.
func (u *UI) redraw() {
	go u.app.Draw()
}

func (u *UI) inputTitle() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	title := fmt.Sprintf("Message | tone: %s | style: %s | format: %s", u.opts.Tone, u.opts.Style, u.opts.Format)
	if u.reference != "" {
		title += " | reference set"
	}
	return title
}

// Run opens a session on the API server and blocks until the user quits or
// ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	id, err := u.client.CreateSession(ctx)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	u.sessionID = id

	u.textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			u.app.SetFocus(u.textArea)
		}
		return event
	})

	subFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(u.textView, 0, 1, false).
		AddItem(u.textArea, 8, 2, true)
	u.mainFlex = tview.NewFlex().
		AddItem(subFlex, 0, 2, false)
	if u.debugShown {
		u.mainFlex.AddItem(u.debugConsole, 0, 1, false)
	}

	u.pages = tview.NewPages().AddPage("main", u.mainFlex, true, true)
	u.setInputCapture(ctx)

	fmt.Fprintf(u.textView, "[green::]Bot:[-]\nHi! Type a message, or /help for commands.\n\n")
	u.warnUnavailable(ctx)

	go func() {
		<-ctx.Done()
		u.app.Stop()
	}()

	return u.app.SetRoot(u.pages, true).SetFocus(u.textArea).Run()
}

func (u *UI) warnUnavailable(ctx context.Context) {
	status, err := u.client.Status(ctx)
	if err != nil {
		u.localLogger.Warn("status check failed: ", err)
		return
	}
	if !status.TextAvailable {
		fmt.Fprintf(u.textView, "[yellow]Text generation is not configured; replies will show the error.[-]\n\n")
	}
	if !status.ImageAvailable {
		fmt.Fprintf(u.textView, "[yellow]Image generation is not configured (CLOUDFLARE_ACCOUNT_ID / CLOUDFLARE_API_TOKEN).[-]\n\n")
	}
}

func (u *UI) setInputCapture(ctx context.Context) {
	u.textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			if u.textView.GetText(false) != "" {
				u.app.SetFocus(u.textView)
			}
			return event
		case tcell.KeyEnter:
			if event.Modifiers()&tcell.ModAlt != 0 {
				return event
			}
		default:
			return event
		}

		content := u.textArea.GetText()
		if strings.TrimSpace(content) == "" {
			return nil
		}
		u.textArea.SetText("", true)

		cmd, err := parseCommand(content)
		if err != nil {
			u.notice(err.Error())
			return nil
		}
		u.dispatch(ctx, cmd)
		return nil
	})
}

func (u *UI) dispatch(ctx context.Context, cmd command) {
	switch cmd.name {
	case "":
		u.background(func() { u.chat(ctx, cmd.arg) })
	case "/help":
		u.listHelp()
	case "/bye":
		u.quitApp()
	case "/debug":
		u.toggleDebugConsole()
	case "/image":
		if cmd.arg == "" {
			u.notice("usage: " + commands["/image"].usage)
			return
		}
		u.background(func() { u.image(ctx, cmd.arg) })
	case "/regen", "/expand", "/shorten":
		index, err := parseIndex(cmd.arg)
		if err != nil {
			u.notice(err.Error())
			return
		}
		action := strings.TrimPrefix(cmd.name, "/")
		u.background(func() { u.rework(ctx, index, action) })
	case "/tone":
		u.setOption(cmd.arg, "tone", prompt.Tones, func(v string) { u.opts.Tone = v })
	case "/style":
		u.setOption(cmd.arg, "style", prompt.Styles, func(v string) { u.opts.Style = v })
	case "/format":
		u.setOption(cmd.arg, "format", prompt.Formats, func(v string) { u.opts.Format = v })
	case "/ref":
		u.mu.Lock()
		u.reference = cmd.arg
		u.mu.Unlock()
		if cmd.arg == "" {
			u.notice("Reference text cleared.")
		} else {
			u.notice("Reference text captured! It will be applied to your next message.")
		}
		u.textArea.SetTitle(u.inputTitle())
	case "/template":
		u.background(func() { u.openTemplatePicker(ctx) })
	case "/clear":
		u.background(func() { u.clear(ctx) })
	case "/export":
		u.background(func() { u.export(ctx, cmd.arg) })
	case "/count":
		u.background(func() { u.count(ctx) })
	}
}

// background runs fn off the event loop with input disabled.
func (u *UI) background(fn func()) {
	u.textArea.SetDisabled(true)
	go func() {
		defer u.app.QueueUpdateDraw(func() {
			u.textArea.SetDisabled(false)
		})
		fn()
	}()
}

func (u *UI) notice(msg string) {
	fmt.Fprintf(u.textView, "[yellow]%s[-]\n\n", tview.Escape(msg))
}

func (u *UI) failed(action string, err error) {
	u.localLogger.Error(action, " failed: ", err)
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		u.notice(fmt.Sprintf("%s: %s", action, apiErr.Message))
		return
	}
	u.notice(fmt.Sprintf("%s: %v", action, err))
}

func (u *UI) show(msgs []handlers.Message) {
	for _, m := range msgs {
		fmt.Fprint(u.textView, formatMessage(m))
		if len(m.Image) > 0 {
			path, err := saveImage(u.outDir, m)
			if err != nil {
				u.failed("save image", err)
				continue
			}
			u.notice("Image saved to " + path)
		}
	}
}

func (u *UI) chat(ctx context.Context, text string) {
	u.mu.Lock()
	req := handlers.ChatRequest{
		Text:      text,
		Tone:      u.opts.Tone,
		Style:     u.opts.Style,
		Format:    u.opts.Format,
		Reference: u.reference,
	}
	u.reference = ""
	u.mu.Unlock()
	u.app.QueueUpdateDraw(func() { u.textArea.SetTitle(u.inputTitle()) })

	msgs, err := u.client.Chat(ctx, u.sessionID, req)
	if err != nil {
		u.failed("chat", err)
		return
	}
	u.show(msgs)
}

func (u *UI) image(ctx context.Context, promptText string) {
	u.notice("Generating your image...")
	msgs, err := u.client.Image(ctx, u.sessionID, handlers.ImageRequest{Prompt: promptText})
	if err != nil {
		u.failed("image", err)
		return
	}
	u.show(msgs)
}

func (u *UI) rework(ctx context.Context, index int, action string) {
	u.mu.Lock()
	req := handlers.ReworkRequest{Tone: u.opts.Tone, Style: u.opts.Style, Format: u.opts.Format}
	u.mu.Unlock()

	msg, err := u.client.Rework(ctx, u.sessionID, index, action, req)
	if err != nil {
		u.failed(action, err)
		return
	}
	u.notice(fmt.Sprintf("Reply #%d updated:", index))
	u.show([]handlers.Message{msg})
}

func (u *UI) setOption(arg, name string, options []string, set func(string)) {
	if arg == "" {
		u.notice(fmt.Sprintf("%s options: %s", name, strings.Join(options, ", ")))
		return
	}
	value, ok := matchOption(arg, options)
	if !ok {
		// free-form formats fall back to a generic instruction
		if name != "format" {
			u.notice(fmt.Sprintf("unknown %s %q; options: %s", name, arg, strings.Join(options, ", ")))
			return
		}
		value = arg
	}

	u.mu.Lock()
	set(value)
	u.mu.Unlock()
	u.textArea.SetTitle(u.inputTitle())
	u.notice(fmt.Sprintf("Using %s: %s", name, value))
}

func (u *UI) clear(ctx context.Context) {
	if err := u.client.Clear(ctx, u.sessionID); err != nil {
		u.failed("clear", err)
		return
	}
	u.app.QueueUpdateDraw(u.resetConversation)
}

// resetConversation empties the conversation view and confirms it. It runs on
// the event loop.
func (u *UI) resetConversation() {
	u.textView.Clear()
	u.notice("Conversation cleared.")
}

func (u *UI) export(ctx context.Context, arg string) {
	format, err := export.ParseFormat(arg)
	if err != nil {
		u.notice(err.Error())
		return
	}
	data, err := u.client.Export(ctx, u.sessionID, string(format))
	if err != nil {
		u.failed("export", err)
		return
	}
	path := format.Filename()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		u.failed("export", err)
		return
	}
	u.notice("Conversation saved to " + path)
}

func (u *UI) count(ctx context.Context) {
	st, err := u.client.Stats(ctx, u.sessionID)
	if err != nil {
		u.failed("count", err)
		return
	}
	u.notice(fmt.Sprintf("Words: %d | Characters: %d", st.Words, st.Chars))
}

func (u *UI) toggleDebugConsole() {
	if u.debugShown {
		u.mainFlex.RemoveItem(u.debugConsole)
		u.notice("Debug console disabled")
	} else {
		u.mainFlex.AddItem(u.debugConsole, 0, 1, false)
		u.notice("Debug console enabled")
	}
	u.debugShown = !u.debugShown
}

func (u *UI) quitApp() {
	fmt.Fprintf(u.textView, "Bye bye\n")
	u.app.Stop()
}

func (u *UI) listHelp() {
	fmt.Fprintf(u.textView, "[green::]Bot:[-]\n")
	fmt.Fprintf(u.textView, "Here are some commands you can use:\n")
	for _, name := range commandOrder {
		spec := commands[name]
		fmt.Fprintf(u.textView, "- %s: %s\n", tview.Escape(spec.usage), spec.help)
	}
	fmt.Fprintln(u.textView)
}

// createModal centres p in a box of the given size.
func createModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
