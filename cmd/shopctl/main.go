package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-shop-client/api"
	"github.com/jrsteele09/go-shop-client/cart"
	"github.com/jrsteele09/go-shop-client/internal/config"
	"github.com/jrsteele09/go-shop-client/session"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	c := config.New()

	if len(args) == 0 {
		usage()
		return nil
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	if err := os.MkdirAll(c.GetDataFolder(), 0o755); err != nil {
		return fmt.Errorf("creating data folder: %w", err)
	}
	store, err := storage.NewStorage(filepath.Join(c.GetDataFolder(), "shop-client.db"))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil && returnError == nil {
			returnError = err
		}
	}()

	manager, err := session.NewManager(store, session.WithLogger(logger))
	if err != nil {
		return err
	}
	cartStore, err := cart.NewStore(store, cart.WithLogger(logger))
	if err != nil {
		return err
	}
	manager.AddListener(cartStore)

	client, err := api.New(c.GetAPIBaseURL(), manager, func() {
		fmt.Fprintf(os.Stderr, "Session expired. Sign in again: shopctl login <email> (%s)\n", c.GetSignInURL())
	}, api.WithTimeout(c.GetHTTPTimeout()), api.WithLogger(logger))
	if err != nil {
		return err
	}
	cartStore.SetFetcher(client.Cart)

	ctx := context.Background()

	switch args[0] {
	case "login":
		return login(ctx, c, client, args[1:])
	case "logout":
		return client.Auth.Logout(ctx)
	case "whoami":
		return whoami(manager)
	case "products":
		return listProducts(ctx, client)
	case "cart":
		return cartCommand(ctx, client, cartStore, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func login(ctx context.Context, c config.Config, client *api.Client, args []string) error {
	displayAppname(c.GetAppName())

	if len(args) < 1 {
		return errors.New("usage: shopctl login <email>")
	}
	email := args[0]

	fmt.Print("Password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	resp, err := client.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%d permissions)\n", email, len(resp.Permissions))
	return nil
}

func whoami(manager *session.Manager) error {
	id := manager.Identity()
	if id == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("Subject: %s\n", id.Sub)
	if id.Email != "" {
		fmt.Printf("Email:   %s\n", id.Email)
	}
	if id.RoleID != "" {
		fmt.Printf("Role:    %s\n", id.RoleID)
	}
	fmt.Printf("Expires: %s\n", id.ExpiresAt().Format("2006-01-02 15:04:05"))
	if manager.IsTokenExpired() {
		fmt.Println("Token has expired; it will refresh on the next request")
	}
	return nil
}

func listProducts(ctx context.Context, client *api.Client) error {
	products, err := client.Products.List(ctx, api.ListProductsParams{})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No products")
		return nil
	}
	for _, p := range products {
		fmt.Printf("%-36s  %8s  %s\n", p.ID, formatPrice(p.Price), p.Name)
	}
	return nil
}

func cartCommand(ctx context.Context, client *api.Client, cartStore *cart.Store, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		items := cartStore.Items()
		if len(items) == 0 {
			fmt.Println("Cart is empty")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%3d x %-30s %8s\n", item.Quantity, item.Name, formatPrice(item.UnitPrice))
		}
		fmt.Printf("Subtotal: %s\n", formatPrice(cartStore.Subtotal()))
		return nil
	case "add":
		if len(args) < 2 {
			return errors.New("usage: shopctl cart add <product-id> [quantity]")
		}
		quantity := 1
		if len(args) >= 3 {
			q, err := strconv.Atoi(args[2])
			if err != nil || q < 1 {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
			quantity = q
		}
		product, err := client.Products.Get(ctx, args[1])
		if err != nil {
			return err
		}
		cartStore.AddItem(product.ID, product.Name, product.Price, quantity)
		if err := client.Cart.PushCart(ctx, cartStore.Items()); err != nil {
			return err
		}
		fmt.Printf("Added %d x %s\n", quantity, product.Name)
		return nil
	case "clear":
		cartStore.Clear()
		if err := client.Cart.PushCart(ctx, nil); err != nil {
			return err
		}
		fmt.Println("Cart cleared")
		return nil
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func formatPrice(minorUnits int64) string {
	return fmt.Sprintf("%d.%02d", minorUnits/100, minorUnits%100)
}

func usage() {
	fmt.Println("Usage: shopctl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login <email>                  sign in and sync the cart")
	fmt.Println("  logout                         sign out and clear the cart")
	fmt.Println("  whoami                         show the current session")
	fmt.Println("  products                       list the catalog")
	fmt.Println("  cart [show|add|clear]          inspect or change the cart")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
