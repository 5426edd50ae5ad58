package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bz888/gramfix/internal/api"
	"github.com/bz888/gramfix/internal/assistant"
	"github.com/bz888/gramfix/internal/config"
	"github.com/bz888/gramfix/internal/logger"
	"github.com/bz888/gramfix/internal/prompt"
	"github.com/bz888/gramfix/internal/session"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const keyModalPage = "keyModal"

var app *tview.Application

var (
	debugConsole *tview.TextView
	textView     *tview.TextView
	textArea     *tview.TextArea
	statsView    *tview.TextView
	historyList  *tview.List
	optionsForm  *tview.Form
	pages        *tview.Pages
	mainFlex     *tview.Flex
	localLogger  *logger.Logger

	helper       *assistant.Assistant
	settings     prompt.Settings
	debugVisible bool
	refreshForm  func()
)

func Init() {
	app = tview.NewApplication()
	app.EnablePaste(true)
	app.EnableMouse(true)

	debugConsole = initDebugConsole()

	textView = initOutputViewer()
	textArea = initTextInput()
	statsView = tview.NewTextView().SetDynamicColors(true)
	historyList = initHistoryList()
}

func initOutputViewer() *tview.TextView {
	textView := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	textView.SetTitle("Corrected text").SetBorder(true)
	textView.SetScrollable(true)
	return textView
}

func initTextInput() *tview.TextArea {
	textArea := tview.NewTextArea()
	textArea.SetTitle("Text to improve (Enter to correct, /help for commands)").SetBorder(true)
	return textArea
}

func initHistoryList() *tview.List {
	list := tview.NewList().ShowSecondaryText(true)
	list.SetTitle("Recent corrections").SetBorder(true)
	return list
}

func initDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// Run shows the assistant until the user quits.
func Run(a *assistant.Assistant) error {
	localLogger = logger.NewLogger("views")
	helper = a
	settings = a.Store().LoadSettings()
	optionsForm = initOptionsForm()

	textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyESC:
			app.SetFocus(textArea)
		}
		return event
	})
	historyList.SetDoneFunc(func() {
		app.SetFocus(textArea)
	})

	leftFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, false).
		AddItem(statsView, 1, 0, false).
		AddItem(textArea, 8, 2, true)
	rightFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(optionsForm, 17, 0, false).
		AddItem(historyList, 0, 1, false)
	mainFlex = tview.NewFlex().
		AddItem(leftFlex, 0, 2, true).
		AddItem(rightFlex, 44, 0, false)

	if config.Dev {
		mainFlex.AddItem(debugConsole, 0, 1, false)
		debugVisible = true
	}

	setInputCapture()
	refreshHistory()
	updateStats("")

	pages = tview.NewPages().AddPage("main", mainFlex, true, true)
	_, ok, err := a.Store().LoadCredential()
	if err != nil {
		localLogger.Warn("Failed to read API key: ", err)
	}
	if title := keyPrompt(ok, err); title != "" {
		showKeyModal(title)
	}

	return app.SetRoot(pages, true).SetFocus(textArea).Run()
}

func initOptionsForm() *tview.Form {
	tone := tview.NewDropDown().SetLabel("Tone")
	tone.SetOptions(toStrings(prompt.Tones), func(option string, index int) {
		settings.Tone = prompt.Tone(option)
	})

	language := tview.NewDropDown().SetLabel("Language")
	language.SetOptions(languageOptions(), func(option string, index int) {
		if index >= 0 {
			settings.Language = prompt.Languages[index]
		}
	})

	level := tview.NewDropDown().SetLabel("Level")
	level.SetOptions(toStrings(prompt.Levels), func(option string, index int) {
		settings.ImprovementLevel = prompt.Level(option)
	})

	target := tview.NewInputField().
		SetLabel("Target words").
		SetFieldWidth(8).
		SetAcceptanceFunc(tview.InputFieldInteger).
		SetChangedFunc(func(text string) {
			n, err := strconv.Atoi(text)
			if err != nil || n < 0 {
				n = 0
			}
			settings.TargetWordCount = n
		})

	preserve := tview.NewCheckbox().
		SetLabel("Preserve formatting").
		SetChangedFunc(func(checked bool) {
			settings.PreserveFormatting = checked
		})

	explain := tview.NewCheckbox().
		SetLabel("Explain changes").
		SetChangedFunc(func(checked bool) {
			settings.ShowExplanations = checked
		})

	refreshForm = func() {
		current := settings
		tone.SetCurrentOption(indexOf(prompt.Tones, current.Tone))
		language.SetCurrentOption(indexOf(prompt.Languages, current.Language))
		level.SetCurrentOption(indexOf(prompt.Levels, current.ImprovementLevel))
		target.SetText("")
		if current.TargetWordCount > 0 {
			target.SetText(strconv.Itoa(current.TargetWordCount))
		}
		preserve.SetChecked(current.PreserveFormatting)
		explain.SetChecked(current.ShowExplanations)
		settings = current
	}
	refreshForm()

	form := tview.NewForm().
		AddFormItem(tone).
		AddFormItem(language).
		AddFormItem(level).
		AddFormItem(target).
		AddFormItem(preserve).
		AddFormItem(explain).
		AddButton("Save Settings", saveSettings)
	form.SetCancelFunc(func() {
		app.SetFocus(textArea)
	})
	form.SetTitle("Options").SetBorder(true)
	return form
}

func setInputCapture() {
	textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			app.SetFocus(optionsForm)
			return nil
		case tcell.KeyTab:
			app.SetFocus(historyList)
			return nil
		case tcell.KeyEnter:
			if event.Modifiers()&tcell.ModAlt != 0 {
				return event
			}
			content := textArea.GetText()
			if strings.TrimSpace(content) == "" {
				return nil
			}

			if strings.HasPrefix(strings.TrimSpace(content), "/") && runCommand(strings.TrimSpace(content)) {
				textArea.SetText("", true)
				return nil
			}

			correct(content)
			return nil
		}
		return event
	})
}

// runCommand handles a slash command. It returns false for unknown commands,
// which are then corrected as ordinary text.
func runCommand(content string) bool {
	command, arg, _ := strings.Cut(content, " ")
	switch command {
	case "/help":
		listHelp()
	case "/key":
		if err := helper.Store().SaveCredential(arg); err != nil {
			showError(err)
			return true
		}
		key, ok, err := helper.Store().LoadCredential()
		if err != nil {
			localLogger.Warn("Failed to read API key: ", err)
			showError(err)
			return true
		}
		if ok {
			fmt.Fprintf(textView, "\n[green::]API key saved (%s)[-]\n", session.MaskKey(key))
		}
	case "/changekey":
		showKeyModal("Enter a new API key")
	case "/clear":
		textView.Clear()
		updateStats("")
	case "/save":
		saveSettings()
	case "/history":
		app.SetFocus(historyList)
	case "/clearhistory":
		if err := helper.Store().ClearHistory(); err != nil {
			showError(err)
			return true
		}
		refreshHistory()
		fmt.Fprintf(textView, "\nHistory cleared\n")
	case "/debug":
		toggleDebugConsole()
	case "/bye":
		quitApp()
	default:
		return false
	}
	return true
}

func correct(content string) {
	textArea.SetDisabled(true)
	current := settings
	textView.Clear()
	fmt.Fprintf(textView, "[yellow::]Correcting...[-]\n")

	go func() {
		result, err := helper.Fix(context.Background(), content, current)
		app.QueueUpdateDraw(func() {
			textArea.SetDisabled(false)
			textView.Clear()
			if err != nil {
				handleFixError(err)
				return
			}
			fmt.Fprintf(textView, "%s\n", tview.Escape(result.Corrected))
			if result.Explanation != "" {
				fmt.Fprintf(textView, "\n[green::]Changes:[-] %s\n", tview.Escape(result.Explanation))
			}
			textView.ScrollToBeginning()
			updateStats(result.Corrected)
			refreshHistory()
		})
	}()
}

func handleFixError(err error) {
	switch {
	case errors.Is(err, assistant.ErrMissingCredential):
		showKeyModal(err.Error())
	case api.IsAuthError(err):
		showKeyModal("Invalid API key. Please enter a valid key.")
	default:
		showError(err)
	}
}

func showError(err error) {
	localLogger.Warn("Showing error: ", err)
	fmt.Fprintf(textView, "[red::]%s[-]\n", tview.Escape(err.Error()))
}

func updateStats(output string) {
	statsView.SetText(formatStats(textArea.GetText(), output))
}

func refreshHistory() {
	historyList.Clear()
	history := helper.Store().LoadHistory()
	now := time.Now()
	for i, entry := range history {
		if i == historyShown {
			break
		}
		historyList.AddItem(historyTitle(entry), historyDetail(entry, now), rune('1'+i), func() {
			loadEntry(entry)
		})
	}
}

// loadEntry puts a past correction back on screen together with the settings
// it was made with.
func loadEntry(entry session.HistoryEntry) {
	textArea.SetText(entry.Original, true)
	textView.Clear()
	fmt.Fprintf(textView, "%s\n", tview.Escape(entry.Corrected))
	if entry.Explanation != "" {
		fmt.Fprintf(textView, "\n[green::]Changes:[-] %s\n", tview.Escape(entry.Explanation))
	}
	settings = entry.Settings
	refreshForm()
	updateStats(entry.Corrected)
	app.SetFocus(textArea)
}

func saveSettings() {
	if err := helper.Store().SaveSettings(settings); err != nil {
		showError(err)
		return
	}
	fmt.Fprintf(textView, "\n[green::]Settings saved[-]\n")
	app.SetFocus(textArea)
}

func createModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func showKeyModal(title string) {
	if pages.HasPage(keyModalPage) {
		return
	}

	input := tview.NewInputField().
		SetLabel("API key: ").
		SetMaskCharacter('*').
		SetFieldWidth(0)
	input.SetTitle(title).SetBorder(true)

	closeModal := func() {
		pages.RemovePage(keyModalPage)
		app.SetFocus(textArea)
	}
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if strings.TrimSpace(input.GetText()) == "" {
				return
			}
			if err := helper.Store().SaveCredential(input.GetText()); err != nil {
				showError(err)
			} else {
				localLogger.Info("API key updated")
				fmt.Fprintf(textView, "\n[green::]API key saved[-]\n")
			}
			closeModal()
		case tcell.KeyEscape:
			closeModal()
		}
	})

	pages.AddPage(keyModalPage, createModal(input, 60, 3), true, true)
	app.SetFocus(input)
}

func toggleDebugConsole() {
	if debugVisible {
		mainFlex.RemoveItem(debugConsole)
		fmt.Fprintf(textView, "\nDebug console disabled\n")
	} else {
		mainFlex.AddItem(debugConsole, 0, 1, false)
		fmt.Fprintf(textView, "\nDebug console enabled\n")
	}
	debugVisible = !debugVisible
}

func quitApp() {
	localLogger.Info("Bye bye")
	app.Stop()
}

func listHelp() {
	fmt.Fprintf(textView, "\n[green::]Here are some commands you can use:[-]\n")
	fmt.Fprintf(textView, "- /help: Display this help message\n")
	fmt.Fprintf(textView, "- /key <value>: Save your API key\n")
	fmt.Fprintf(textView, "- /changekey: Enter a new API key\n")
	fmt.Fprintf(textView, "- /clear: Clear the output\n")
	fmt.Fprintf(textView, "- /save: Save the current options as defaults\n")
	fmt.Fprintf(textView, "- /history: Browse recent corrections (Tab also works)\n")
	fmt.Fprintf(textView, "- /clearhistory: Delete all saved corrections\n")
	fmt.Fprintf(textView, "- /debug: Toggle the debug console\n")
	fmt.Fprintf(textView, "- /bye: Exit the application\n\n")
	fmt.Fprintf(textView, "Esc moves to the options, Alt+Enter inserts a new line.\n")
}

func GetDebugConsole() (*tview.TextView, error) {
	if debugConsole == nil {
		return nil, errors.New("debug console not initialized")
	}
	return debugConsole, nil
}
