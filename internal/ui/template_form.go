package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/templates"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const templatePage = "template"

// openTemplatePicker walks category -> template -> form. It is called off the
// event loop; widget changes are queued.
func (u *UI) openTemplatePicker(ctx context.Context) {
	categories, err := u.client.Categories(ctx)
	if err != nil {
		u.failed("templates", err)
		return
	}

	u.app.QueueUpdateDraw(func() {
		list := tview.NewList().ShowSecondaryText(false)
		list.SetTitle("Template category").SetBorder(true)
		for _, name := range categories {
			category := name
			list.AddItem(category, "", 0, func() {
				go u.openTemplateList(ctx, category)
			})
		}
		u.showModal(list, 50, len(categories)+2)
	})
}

func (u *UI) openTemplateList(ctx context.Context, category string) {
	cat, err := u.client.Category(ctx, category)
	if err != nil {
		u.app.QueueUpdateDraw(u.closeModal)
		u.failed("templates", err)
		return
	}

	u.app.QueueUpdateDraw(func() {
		list := tview.NewList()
		list.SetTitle(category).SetBorder(true)
		for _, t := range cat.Templates {
			tmpl := t
			list.AddItem(tmpl.Name, tmpl.Description, 0, func() {
				u.showModal(u.templateForm(ctx, tmpl), 80, 30)
			})
		}
		u.showModal(list, 60, 2*len(cat.Templates)+2)
	})
}

func (u *UI) templateForm(ctx context.Context, tmpl templates.Template) *tview.Form {
	values := make(map[string]string, len(tmpl.Placeholders))
	form := tview.NewForm()
	form.SetTitle(tmpl.Name).SetBorder(true)

	for _, p := range tmpl.Placeholders {
		name := p
		label := placeholderLabel(name)
		if templates.Multiline(name) {
			form.AddTextArea(label, "", 0, 3, 0, func(text string) { values[name] = text })
		} else {
			form.AddInputField(label, "", 0, nil, func(text string) { values[name] = text })
		}
	}

	form.AddButton("Generate", func() {
		if missing := tmpl.Missing(values); len(missing) > 0 {
			labels := make([]string, len(missing))
			for i, m := range missing {
				labels[i] = placeholderLabel(m)
			}
			form.SetTitle(fmt.Sprintf("%s (missing: %s)", tmpl.Name, strings.Join(labels, ", ")))
			return
		}

		u.closeModal()
		u.mu.Lock()
		req := handlers.TemplateRequest{
			Category: tmpl.Category,
			Name:     tmpl.Name,
			Values:   values,
			Tone:     u.opts.Tone,
			Style:    u.opts.Style,
			Format:   u.opts.Format,
		}
		u.mu.Unlock()
		u.background(func() { u.generateTemplate(ctx, req) })
	})
	form.AddButton("Cancel", u.closeModal)
	form.SetCancelFunc(u.closeModal)
	return form
}

func (u *UI) generateTemplate(ctx context.Context, req handlers.TemplateRequest) {
	msgs, err := u.client.Template(ctx, u.sessionID, req)
	if err != nil {
		u.failed("template", err)
		return
	}
	u.show(msgs)
}

func (u *UI) showModal(p tview.Primitive, width, height int) {
	if box, ok := p.(interface {
		SetInputCapture(func(*tcell.EventKey) *tcell.EventKey) *tview.Box
	}); ok {
		box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			if event.Key() == tcell.KeyESC {
				u.closeModal()
				return nil
			}
			return event
		})
	}
	u.pages.RemovePage(templatePage)
	u.pages.AddPage(templatePage, createModal(p, width, height), true, true)
	u.app.SetFocus(p)
}

func (u *UI) closeModal() {
	u.pages.RemovePage(templatePage)
	u.app.SetFocus(u.textArea)
}
