package main

import (
	"flag"
	"fmt"
	"strings"

	"avocare/api/handlers"
	"avocare/api/routes"
	"avocare/config"
	"avocare/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var demoTopics = []string{
	"Yellow leaves on my Hass tree",
	"When should I pick the first fruit",
	"Brown spots after the rain",
	"Best mulch for young trees",
	"Thrips damage on new growth",
	"How much water in summer",
	"Grafting a seedling onto Reed rootstock",
	"Fruit drop in early spring",
}

var demoBodies = []string{
	"I noticed this last week and it keeps spreading along the lower branches. Any advice is welcome.",
	"The tree is about three years old and planted in clay soil with a drip line running twice a week.",
	"We had a warm winter and the flowering started earlier than usual this year.",
	"I tried a copper spray already but I am not sure about the timing or the dose.",
}

func main() {
	var configPath string
	var seedPosts int
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&seedPosts, "seed", 10, "Number of demo posts to create on startup")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := config.NewLogger(config.AppConfig.Logs.Level)
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}
	defer log.Sync()

	backend := handlers.NewBackend(config.AppConfig.Stub.JWTSecret, handlers.WithLogger(log))
	if err := seed(backend, seedPosts, log); err != nil {
		panic("Failed to seed demo data: " + err.Error())
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.NewRouter(backend)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Stub.Host, config.AppConfig.Stub.Port)
	log.Infow("Starting stand-in backend", "addr", addr)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}

// seed заводит демо-пользователя, администратора и несколько постов от случайных авторов
func seed(b *handlers.Backend, posts int, log *zap.SugaredLogger) error {
	demo, err := b.AddUser("Demo Grower", "demo@avocare.local", "demo1234", models.RoleUser, true)
	if err != nil {
		return err
	}
	if _, err := b.AddUser("Forum Admin", "admin@avocare.local", "admin1234", models.RoleAdmin, true); err != nil {
		return err
	}
	log.Infow("demo accounts ready", "user", "demo@avocare.local / demo1234", "admin", "admin@avocare.local / admin1234")

	authors := []models.User{demo}
	for i := 0; i < 3; i++ {
		name := gofakeit.FirstName() + " " + gofakeit.LastName()
		email := fmt.Sprintf("%s_%s@avocare.local", strings.ToLower(gofakeit.FirstName()), gofakeit.Numerify("####"))
		u, err := b.AddUser(name, email, gofakeit.Password(true, true, true, false, false, 10), models.RoleUser, true)
		if err != nil {
			return err
		}
		authors = append(authors, u)
	}

	for i := 0; i < posts; i++ {
		author := authors[gofakeit.Number(0, len(authors)-1)]
		var likedBy []string
		for _, u := range authors {
			if u.ID != author.ID && gofakeit.Bool() {
				likedBy = append(likedBy, u.ID)
			}
		}
		_, err := b.SeedPost(author.ID, models.Post{
			Title:    gofakeit.RandomString(demoTopics),
			Content:  gofakeit.RandomString(demoBodies),
			Category: models.Categories[gofakeit.Number(0, len(models.Categories)-1)],
			LikedBy:  likedBy,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
