package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"booksy/internal/model"
	"booksy/internal/session"
	"booksy/internal/viewmodel"
)

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "signup":
		return a.signup(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "books":
		return a.books(ctx, args)
	case "book":
		return a.book(ctx, args)
	case "add-to-cart":
		return a.addToCart(ctx, args)
	case "cart":
		return a.cart(ctx)
	case "remove":
		return a.remove(ctx, args)
	case "clear-cart":
		return a.clearCart(ctx)
	case "checkout":
		return a.checkout(ctx, args)
	case "profile":
		return a.profile(ctx, args)
	case "profile-image":
		return a.profileImage(ctx, args)
	case "country":
		return a.country(ctx, args)
	case "help", "-h", "--help":
		_, err := fmt.Fprint(a.out, usage)
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// oneArg returns the single positional argument of a command.
func oneArg(command string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: %s takes exactly one argument", errUsage, command)
	}
	return args[0], nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// currentSession returns the stored session or model.ErrNotLoggedIn.
func (a *app) currentSession(ctx context.Context) (session.Session, error) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if !s.LoggedIn() {
		return session.Session{}, model.ErrNotLoggedIn
	}
	return s, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	vm := viewmodel.NewAuth(a.client, a.sessions, a.logger)
	vm.SetEmail(*email)
	vm.SetPassword(*password)

	err := vm.Login(ctx)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := newFlagSet("signup")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	vm := viewmodel.NewAuth(a.client, a.sessions, a.logger)
	vm.SetName(*name)
	vm.SetEmail(*email)
	vm.SetPassword(*password)
	vm.SetConfirmPassword(*confirm)

	err := vm.Register(ctx)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) logout(ctx context.Context) error {
	vm, err := viewmodel.NewProfile(ctx, a.client, a.sessions, a.images, a.logger)
	if err != nil {
		return err
	}
	if err := vm.Logout(ctx); err != nil {
		return err
	}
	return a.print(vm.State())
}

func (a *app) books(ctx context.Context, args []string) error {
	fs := newFlagSet("books")
	query := fs.String("q", "", "search title or author")
	category := fs.String("category", viewmodel.AllCategories, "category filter")
	listCategories := fs.Bool("categories", false, "list categories instead of books")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	vm := viewmodel.NewCatalog(a.client, a.logger)
	vm.SetQuery(*query)
	vm.SetCategory(*category)

	err := vm.Load(ctx)
	if err == nil && *listCategories {
		return a.print(vm.Categories())
	}
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) book(ctx context.Context, args []string) error {
	id, err := oneArg("book", args)
	if err != nil {
		return err
	}

	vm := viewmodel.NewBookDetail(a.client, a.logger)
	err = vm.Load(ctx, id)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) addToCart(ctx context.Context, args []string) error {
	id, err := oneArg("add-to-cart", args)
	if err != nil {
		return err
	}

	s, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	vm := viewmodel.NewBookDetail(a.client, a.logger)
	if err := vm.Load(ctx, id); err != nil {
		return err
	}

	item, err := vm.AddToCart(ctx, s.UserID)
	if err != nil {
		return err
	}
	return a.print(item)
}

func (a *app) cart(ctx context.Context) error {
	s, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	vm := viewmodel.NewCart(a.client, a.logger)
	err = vm.Load(ctx, s.UserID)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, err := oneArg("remove", args)
	if err != nil {
		return err
	}

	s, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	vm := viewmodel.NewCart(a.client, a.logger)
	err = vm.Remove(ctx, &id, s.UserID)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) clearCart(ctx context.Context) error {
	s, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	vm := viewmodel.NewCart(a.client, a.logger)
	err = vm.Clear(ctx, s.UserID)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := newFlagSet("checkout")
	name := fs.String("name", "", "recipient name")
	address := fs.String("address", "", "shipping address")
	region := fs.String("region", "", "shipping region name or code")
	phone := fs.String("phone", "", "contact phone")
	locate := fs.Bool("locate", false, "attach the current location")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	s, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	cart := viewmodel.NewCart(a.client, a.logger)
	if err := cart.Load(ctx, s.UserID); err != nil {
		return err
	}
	current := cart.State()

	vm := viewmodel.NewCheckout(a.client, a.countries, a.locator, viewmodel.CheckoutOptions{
		PaymentDelay: a.cfg.Checkout.PaymentDelay,
		Country:      a.cfg.Checkout.Country,
	}, a.logger)
	vm.LoadCountryInfo(ctx)

	vm.SetName(*name)
	vm.SetAddress(*address)
	vm.SetRegion(*region)
	vm.SetPhone(*phone)
	if *locate {
		vm.UseCurrentLocation(ctx)
	}
	vm.Wait()

	var total float64
	if current.Total != nil {
		total = current.Total.Total
	}

	err = vm.Submit(ctx, s.UserID, current.Items, total)
	if printErr := a.print(vm.State()); printErr != nil {
		return printErr
	}
	return err
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	refresh := fs.Bool("refresh", true, "refresh from the server")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	vm, err := viewmodel.NewProfile(ctx, a.client, a.sessions, a.images, a.logger)
	if err != nil {
		return err
	}
	if !vm.State().LoggedIn {
		return model.ErrNotLoggedIn
	}
	if *refresh {
		vm.Refresh(ctx)
	}
	return a.print(vm.State())
}

func (a *app) profileImage(ctx context.Context, args []string) error {
	path, err := oneArg("profile-image", args)
	if err != nil {
		return err
	}

	vm, err := viewmodel.NewProfile(ctx, a.client, a.sessions, a.images, a.logger)
	if err != nil {
		return err
	}
	if !vm.State().LoggedIn {
		return model.ErrNotLoggedIn
	}

	vm.SaveProfileImage(ctx, path)
	return a.print(vm.State())
}

func (a *app) country(ctx context.Context, args []string) error {
	fs := newFlagSet("country")
	name := fs.String("name", a.cfg.Checkout.Country, "country name")
	code := fs.String("code", "", "ISO 3166 country code")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		country *model.Country
		err     error
	)
	if *code != "" {
		country, err = a.countries.ByCode(ctx, *code)
	} else {
		country, err = a.countries.ByName(ctx, *name)
	}
	if err != nil {
		return err
	}

	return a.print(country)
}
