package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/DrewGalowayDev/Awesome/internal/cart"
	"github.com/DrewGalowayDev/Awesome/internal/notify"
)

type linkOptions struct {
	cartFile string
	host     string
	to       string
	qr       string
	size     int
	message  bool
}

func newLinkCmd() *cobra.Command {
	opts := &linkOptions{}
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Build the order deep link for a saved cart",
		Long: `Reads a cart in its persisted JSON form and prints the chat deep link that
carries the order message. --qr also writes the link as a PNG QR code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.cartFile, "cart", "", "Cart JSON file (required)")
	cmd.Flags().StringVar(&opts.host, "host", notify.DefaultHost, "Chat service host")
	cmd.Flags().StringVar(&opts.to, "to", notify.DefaultDestination, "Destination phone number")
	cmd.Flags().StringVar(&opts.qr, "qr", "", "Write a QR code PNG to this path")
	cmd.Flags().IntVar(&opts.size, "size", 256, "QR code size in pixels")
	cmd.Flags().BoolVar(&opts.message, "message", false, "Print the message text before the link")
	_ = cmd.MarkFlagRequired("cart")
	return cmd
}

func runLink(ctx context.Context, out io.Writer, opts *linkOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(opts.cartFile)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}
	slot := cart.NewMemorySlot()
	key := cart.Key("", "")
	if err := slot.Set(ctx, key, data); err != nil {
		return err
	}
	store := cart.New(ctx, slot, key, log.New(io.Discard, "", 0))

	msg, ok := store.OrderMessage()
	if !ok {
		return errors.New("cart is empty")
	}
	link := notify.DeepLink(opts.host, opts.to, msg)
	if opts.message {
		fmt.Fprintln(out, msg)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, link)

	if opts.qr != "" {
		png, err := notify.QRCode(link, opts.size)
		if err != nil {
			return fmt.Errorf("encode qr: %w", err)
		}
		if err := os.WriteFile(opts.qr, png, 0o644); err != nil {
			return fmt.Errorf("write qr: %w", err)
		}
	}
	return nil
}
