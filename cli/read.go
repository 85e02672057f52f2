package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/reader"
	live "github.com/binhbb2204/nocturne/internal/websocket"
	"github.com/binhbb2204/nocturne/pkg/models"
	ws "github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readFromEnd bool

var readCmd = &cobra.Command{
	Use:   "read [novel-id] [chapter-id]",
	Short: "Read a novel in the terminal",
	Long: `Open a live reader. Arrow keys turn pages, n/p jump between chapters,
s saves the novel to your library, q quits.

Without a chapter id the first chapter is opened.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		novelID := args[0]
		chapterID := ""
		if len(args) == 2 {
			chapterID = args[1]
		} else {
			chapterID, err = firstChapter(cmd.Context(), client, novelID)
			if err != nil {
				return err
			}
		}
		return runReader(cmd.Context(), client, novelID, chapterID)
	},
}

func firstChapter(ctx context.Context, client *apiClient, novelID string) (string, error) {
	var d struct {
		Chapters []models.ChapterSummary `json:"chapters"`
	}
	if err := client.get(ctx, "/api/novels/"+url.PathEscape(novelID), &d); err != nil {
		return "", err
	}
	if len(d.Chapters) == 0 {
		return "", fmt.Errorf("novel %s has no chapters yet", novelID)
	}
	return d.Chapters[0].ID, nil
}

func readerURL(client *apiClient, novelID, chapterID string) string {
	q := url.Values{}
	q.Set("novel", novelID)
	q.Set("chapter", chapterID)
	q.Set("width", strconv.Itoa(client.cfg.Reader.Width))
	if client.cfg.Reader.FinePointer {
		q.Set("pointer", "fine")
	}
	if readFromEnd {
		q.Set("pos", "end")
	}
	return client.cfg.WebSocketURL() + "?" + q.Encode()
}

func runReader(ctx context.Context, client *apiClient, novelID, chapterID string) error {
	header := http.Header{}
	if client.cfg.User.Token != "" {
		header.Set("Authorization", "Bearer "+client.cfg.User.Token)
	}
	conn, resp, err := ws.DefaultDialer.DialContext(ctx, readerURL(client, novelID, chapterID), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("novel or chapter not found")
		}
		return fmt.Errorf("failed to open reader: %w", err)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer term.Restore(fd, state)
	}

	incoming := make(chan live.ServerMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg live.ServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			incoming <- msg
		}
	}()

	keys := make(chan keyAction)
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			for _, k := range decodeKeys(buf[:n]) {
				keys <- k
			}
		}
	}()

	var current reader.View
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case msg := <-incoming:
			switch msg.Type {
			case live.MessageTypeView, live.MessageTypeRefresh:
				if msg.View != nil {
					current = *msg.View
					fmt.Print(renderView(current, msg.Type == live.MessageTypeRefresh))
				}
			case live.MessageTypeError:
				fmt.Printf("\r\n\033[31m%s\033[0m\r\n", serverErrorText(msg))
			}
		case k, ok := <-keys:
			if !ok || k == keyQuit {
				conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
				fmt.Print("\r\n")
				return nil
			}
			out, send := k.message(current)
			if !send {
				continue
			}
			if err := conn.WriteJSON(out); err != nil {
				return fmt.Errorf("failed to send: %w", err)
			}
		}
	}
}

type keyAction int

const (
	keyNone keyAction = iota
	keyNext
	keyPrev
	keyNextChapter
	keyPrevChapter
	keyLibrary
	keyDismiss
	keyQuit
)

// decodeKeys maps raw terminal bytes to reader actions. Arrow keys arrive
// as ESC [ C and ESC [ D.
func decodeKeys(b []byte) []keyAction {
	var out []keyAction
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case 0x1b:
			if i+2 < len(b) && b[i+1] == '[' {
				switch b[i+2] {
				case 'C':
					out = append(out, keyNext)
				case 'D':
					out = append(out, keyPrev)
				}
				i += 2
			}
		case 'q', 'Q', 3:
			out = append(out, keyQuit)
		case ' ', 'l':
			out = append(out, keyNext)
		case 'h':
			out = append(out, keyPrev)
		case 'n':
			out = append(out, keyNextChapter)
		case 'p':
			out = append(out, keyPrevChapter)
		case 's':
			out = append(out, keyLibrary)
		case 'g':
			out = append(out, keyDismiss)
		}
	}
	return out
}

func (k keyAction) message(v reader.View) (live.ClientMessage, bool) {
	switch k {
	case keyNext:
		return live.ClientMessage{Type: live.MessageTypeKey, Key: reader.KeyNext}, true
	case keyPrev:
		return live.ClientMessage{Type: live.MessageTypeKey, Key: reader.KeyPrev}, true
	case keyNextChapter:
		if i := v.ChapterIndex + 1; i < len(v.Chapters) {
			return live.ClientMessage{Type: live.MessageTypeJump, ChapterID: v.Chapters[i].ID}, true
		}
	case keyPrevChapter:
		if i := v.ChapterIndex - 1; i >= 0 && i < len(v.Chapters) {
			return live.ClientMessage{Type: live.MessageTypeJump, ChapterID: v.Chapters[i].ID}, true
		}
	case keyLibrary:
		return live.ClientMessage{Type: live.MessageTypeLibrary}, true
	case keyDismiss:
		return live.ClientMessage{Type: live.MessageTypeDismissGuide}, true
	}
	return live.ClientMessage{}, false
}

// renderView draws one page. Raw mode needs explicit carriage returns.
func renderView(v reader.View, refreshed bool) string {
	var b strings.Builder
	b.WriteString("\033[H\033[2J")
	fmt.Fprintf(&b, "%s  ·  %s\n", v.Novel.Title, v.ChapterTitle)
	fmt.Fprintf(&b, "Page %d / %d", v.Page+1, v.PageCount)
	if v.Saved {
		b.WriteString("  ★")
	}
	if v.DemoMode {
		b.WriteString("  [demo]")
	}
	if refreshed {
		b.WriteString("  (updated)")
	}
	b.WriteString("\n\n")
	if v.Unavailable {
		b.WriteString("This chapter is unavailable.\n")
	} else {
		b.WriteString(v.Text)
		b.WriteString("\n")
	}
	if v.ShowNextPrompt {
		b.WriteString("\nEnd of chapter. Press → for the next one.\n")
	}
	if v.ShowGuide {
		b.WriteString("\n← → turn pages   n/p chapters   s save   g hide guide   q quit\n")
	}
	return strings.ReplaceAll(b.String(), "\n", "\r\n")
}

func serverErrorText(msg live.ServerMessage) string {
	if msg.Code == apperr.CodeUnauthenticated {
		return "login required: run nocturne auth login"
	}
	if msg.Error != "" {
		return msg.Error
	}
	return string(msg.Code)
}

func init() {
	readCmd.Flags().BoolVar(&readFromEnd, "end", false, "Open the chapter on its last page")
}
