package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deepseek/pkg/deepseek"
)

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if err := client.Login(context.Background()); err != nil {
		logger.Error("login failed", zap.Error(err))
		return err
	}

	switch {
	case cfg.APIKey != "":
		fmt.Println(successStyle.Render("Using static API key; nothing cached."))
	default:
		fmt.Println(successStyle.Render("Logged in. Credentials cached for later runs."))
	}
	return nil
}

func runModels(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	models, err := client.Models(context.Background())
	if err != nil {
		return err
	}

	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		detail, _ := json.Marshal(models[name])
		fmt.Printf("%s  %s\n", modelStyle.Render(name), string(detail))
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger.Debug("sending message",
		zap.String("model", chatModel),
		zap.Bool("stream", chatStream),
	)

	if !chatStream {
		resp, err := client.Send(ctx, message, deepseek.WithModel(chatModel))
		if err != nil {
			return err
		}
		fmt.Println(assistantStyle.Render(resp.Content()))
		return nil
	}

	stream, err := client.SendStream(ctx, message, deepseek.WithModel(chatModel))
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, delta.Content())
	}
	fmt.Println()
	return nil
}
