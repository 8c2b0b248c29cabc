package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var flagConversation string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the support assistant",
	Long: `chat opens an interactive session with the support assistant. Each line
you type is sent as a message; replies print inline. When the assistant
escalates, the created ticket is shown with its title and category.

An unsent line is kept as a draft per conversation and restored next time.
Exit with ctrl-d or /quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}
		if s.Token == "" {
			return fmt.Errorf("not logged in, run: caredesk login <email>")
		}

		client := newAPIClient(s)
		conversationID, customerID, err := openConversation(client, flagConversation)
		if err != nil {
			return err
		}

		if draft := s.Draft(conversationID); draft != "" {
			fmt.Printf("(restored draft: %s)\n", draft)
		}

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "/quit" {
				break
			}
			if line == "" {
				fmt.Print("> ")
				continue
			}

			turn, err := sendTurn(client, conversationID, customerID, line)
			if err != nil {
				// Keep the message as a draft so it is not lost.
				s.SetDraft(conversationID, line)
				if saveErr := s.Save(path); saveErr != nil {
					fmt.Fprintf(os.Stderr, "warning: could not save draft: %v\n", saveErr)
				}
				return err
			}

			s.SetDraft(conversationID, "")
			fmt.Println(turn.Response)
			if turn.TicketCreated != nil {
				fmt.Printf("[ticket created: %s (%s, %s)]\n",
					turn.TicketCreated.Title, turn.TicketCreated.Category, turn.TicketCreated.Priority)
			}
			fmt.Print("> ")
		}

		if err := s.Save(path); err != nil {
			return err
		}
		return scanner.Err()
	},
}

type chatTurn struct {
	Response      string `json:"response"`
	TicketCreated *struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Category string `json:"category"`
		Priority string `json:"priority"`
	} `json:"ticketCreated"`
	ConversationUpdate struct {
		Sentiment string `json:"sentiment"`
		Status    string `json:"status"`
	} `json:"conversationUpdate"`
}

// openConversation resolves the ids every chat turn must carry. The server
// returns the caller's active conversation (creating one if needed) along
// with their customer id; an explicit -c flag overrides the conversation.
func openConversation(client *apiClient, conversationID string) (string, string, error) {
	var resp struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
		CustomerID string `json:"customerId"`
	}
	if err := client.postJSON("/api/conversations", map[string]string{}, &resp); err != nil {
		return "", "", err
	}
	if conversationID == "" {
		conversationID = resp.Conversation.ID
	}
	return conversationID, resp.CustomerID, nil
}

func sendTurn(client *apiClient, conversationID, customerID, message string) (*chatTurn, error) {
	body := map[string]string{
		"message":        message,
		"conversationId": conversationID,
		"customerId":     customerID,
	}
	var turn chatTurn
	if err := client.postJSON("/api/chat", body, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func init() {
	chatCmd.Flags().StringVarP(&flagConversation, "conversation", "c", "", "continue an existing conversation by id")
}
