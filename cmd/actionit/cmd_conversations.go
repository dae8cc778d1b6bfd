package main

import (
	"context"
	"fmt"
	"os"

	"github.com/actionit/actionit/src/theme"
)

// ConversationsCmd groups conversation management subcommands.
type ConversationsCmd struct {
	List   ConversationsListCmd   `cmd:"" default:"1" help:"List conversations, most recently updated first"`
	New    ConversationsNewCmd    `cmd:"" help:"Create an empty conversation"`
	Show   ConversationsShowCmd   `cmd:"" help:"Print a conversation transcript"`
	Delete ConversationsDeleteCmd `cmd:"" help:"Delete a conversation and its messages"`
	Rename ConversationsRenameCmd `cmd:"" help:"Rename a conversation"`
	Assign ConversationsAssignCmd `cmd:"" help:"Assign a conversation to a project (empty project detaches)"`
}

type ConversationsListCmd struct{}

func (c *ConversationsListCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	convs, err := env.gateway.ListConversations(context.Background())
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println(theme.CurrentTheme.Muted.Render("no conversations"))
		return nil
	}

	for _, conv := range convs {
		project := ""
		if conv.ProjectID != nil {
			project = "  " + theme.CurrentTheme.Muted.Render("["+*conv.ProjectID+"]")
		}
		fmt.Printf("%s  %s  %s%s\n",
			conv.ID,
			conv.UpdatedAt.Format("2006-01-02 15:04"),
			conv.Title,
			project)
	}
	return nil
}

type ConversationsNewCmd struct {
	Title   string `arg:"" optional:"" help:"Conversation title"`
	Project string `help:"Project ID to associate"`
}

func (c *ConversationsNewCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	conv, err := env.gateway.CreateConversation(context.Background(), c.Title, c.Project)
	if err != nil {
		return err
	}
	fmt.Println(conv.ID)
	return nil
}

type ConversationsShowCmd struct {
	ID string `arg:"" help:"Conversation ID"`
}

func (c *ConversationsShowCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	conv, err := env.gateway.GetConversation(ctx, c.ID)
	if err != nil {
		return err
	}
	messages, err := env.gateway.GetMessages(ctx, c.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n", theme.CurrentTheme.Muted.Render(conv.Title))
	for _, msg := range messages {
		fmt.Printf("%s %s\n\n", theme.RoleLabel(msg.Role), msg.Content)
	}
	return nil
}

type ConversationsDeleteCmd struct {
	ID string `arg:"" help:"Conversation ID"`
}

func (c *ConversationsDeleteCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	ok, err := env.gateway.DeleteConversation(context.Background(), c.ID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(os.Stderr, theme.CurrentTheme.Error.Render("delete failed; see logs"))
		os.Exit(1)
	}
	fmt.Println("deleted", c.ID)
	return nil
}

type ConversationsRenameCmd struct {
	ID    string `arg:"" help:"Conversation ID"`
	Title string `arg:"" help:"New title"`
}

func (c *ConversationsRenameCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.gateway.UpdateConversationTitle(context.Background(), c.ID, c.Title); err != nil {
		return err
	}
	fmt.Println("renamed", c.ID)
	return nil
}

type ConversationsAssignCmd struct {
	ID      string `arg:"" help:"Conversation ID"`
	Project string `arg:"" optional:"" help:"Project ID; omit to detach"`
}

func (c *ConversationsAssignCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.gateway.AssignConversationToProject(context.Background(), c.ID, c.Project); err != nil {
		return err
	}
	if c.Project == "" {
		fmt.Println("detached", c.ID)
	} else {
		fmt.Println("assigned", c.ID, "->", c.Project)
	}
	return nil
}
