package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"deepwork-api/internal/auth"
	"deepwork-api/internal/config"
	"deepwork-api/internal/db"
	"deepwork-api/internal/domain"
	"deepwork-api/internal/email"
	"deepwork-api/internal/identity"
	"deepwork-api/internal/repository"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	accountRepo := repository.NewPgAccountRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)

	accountSvc := identity.NewAccountService(logger, accountRepo, email.NewDisabledSender("email sender not configured"), nil)
	tokenSvc := identity.NewTokenService(cfg.JWTSecret, 0, 0)
	storage := identity.NewFileSessionStorage(cfg.SessionFile)
	client := identity.NewClient(logger, accountSvc, tokenSvc, storage)

	var manager *auth.Manager
	onError := func(err error) {
		if manager != nil {
			manager.RecordError(err)
		}
	}

	store := auth.NewSessionStore(logger, client, onError)
	reconciler := auth.NewReconciler(logger, profileRepo, nil, onError)
	facade := auth.NewFacade(logger, client, profileRepo)
	manager = auth.NewManager(logger, store, reconciler, facade)

	unsub := manager.Subscribe(func(st auth.State) {
		fmt.Printf("-- %s\n", describeState(st))
	})
	defer unsub()

	manager.Start(ctx)
	defer manager.Close()

	for {
		st := manager.Snapshot()
		fmt.Println("===== DeepWork AI =====")
		fmt.Printf("estado: %s\n", describeState(st))
		if st.Err != "" {
			fmt.Printf("ultimo error: %s\n", st.Err)
		}
		if st.Phase == auth.PhaseAuthenticated {
			fmt.Println("[p]erfil  [e]ditar nombre  [t]ema  [o] logout  [q] salir")
		} else {
			fmt.Println("[l]ogin  [r]egistro  [c]ontrasena olvidada  [q] salir")
		}

		choice := prompt(reader, "> ")
		switch choice {
		case "l":
			emailAddr := prompt(reader, "email: ")
			password := prompt(reader, "password: ")
			if err := manager.SignIn(ctx, emailAddr, password); err != nil {
				fmt.Printf("login fallo: %v\n", err)
			}
		case "r":
			emailAddr := prompt(reader, "email: ")
			password := prompt(reader, "password: ")
			fullName := prompt(reader, "nombre completo: ")
			if err := manager.SignUp(ctx, emailAddr, password, fullName); err != nil {
				fmt.Printf("registro fallo: %v\n", err)
			}
		case "c":
			emailAddr := prompt(reader, "email: ")
			if err := manager.ResetPassword(ctx, emailAddr); err != nil {
				fmt.Printf("reset fallo: %v\n", err)
			} else {
				fmt.Println("si la cuenta existe, se envio un codigo de reset")
			}
		case "p":
			printProfile(manager.Snapshot().Profile)
		case "e":
			name := prompt(reader, "nombre completo: ")
			if name == "" {
				continue
			}
			if _, err := manager.UpdateProfile(ctx, domain.ProfileUpdate{FullName: &name}); err != nil {
				fmt.Printf("actualizar perfil fallo: %v\n", err)
			}
		case "t":
			theme := prompt(reader, "tema (light/dark/system): ")
			prefs := currentPrefs(manager.Snapshot().Profile)
			prefs.Theme = theme
			if _, err := manager.UpdateProfile(ctx, domain.ProfileUpdate{Preferences: &prefs}); err != nil {
				fmt.Printf("actualizar perfil fallo: %v\n", err)
			}
		case "o":
			if err := manager.SignOut(ctx); err != nil {
				fmt.Printf("logout fallo: %v\n", err)
			}
		case "q":
			return
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func describeState(st auth.State) string {
	desc := st.Phase.String()
	if st.Loading {
		desc += " (cargando)"
	}
	if st.Profile != nil {
		desc += " " + st.Profile.Email
	}
	return desc
}

func printProfile(p *domain.Profile) {
	if p == nil {
		fmt.Println("sin perfil")
		return
	}
	fmt.Printf("id: %s\nemail: %s\n", p.ID, p.Email)
	if p.FullName != nil {
		fmt.Printf("nombre: %s\n", *p.FullName)
	}
	if p.TimeZone != nil {
		fmt.Printf("zona horaria: %s\n", *p.TimeZone)
	}
	if p.Preferences != nil {
		fmt.Printf("tema: %s\n", p.Preferences.Theme)
	}
	if p.LastLogin != nil {
		fmt.Printf("ultimo login: %s\n", p.LastLogin.Format("2006-01-02 15:04"))
	}
}

func currentPrefs(p *domain.Profile) domain.Preferences {
	if p != nil && p.Preferences != nil {
		return *p.Preferences
	}
	return domain.Preferences{
		Theme:         "system",
		Notifications: true,
		Sound:         true,
		Vibration:     true,
	}
}
