package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"avocare/api/client"
	"avocare/models"
	"avocare/services"
)

type usageError string

func (e usageError) Error() string { return string(e) }

// stringList - повторяемый флаг
type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

// positional отделяет n обязательных аргументов, остальное разбирает как флаги
func positional(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if len(args) < n {
		return nil, usageError(fmt.Sprintf("%s: expected %d argument(s)", fs.Name(), n))
	}
	if err := fs.Parse(args[n:]); err != nil {
		return nil, usageError(err.Error())
	}
	return args[:n], nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "register":
		return a.register(ctx, args)
	case "resend-verification":
		return a.resend(ctx, args)
	case "whoami":
		return a.whoami()
	case "posts":
		return a.posts(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "delete", "archive", "unarchive":
		return a.moderate(ctx, cmd, args)
	case "like":
		return a.like(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "edit-comment":
		return a.editComment(ctx, args)
	case "delete-comment":
		return a.deleteComment(ctx, args)
	case "like-comment":
		return a.likeComment(ctx, args)
	case "chat":
		return a.chatCmd(ctx, args)
	case "suggestions":
		return a.suggestions(ctx)
	}
	return usageError(fmt.Sprintf("unknown command %q", cmd))
}

func (a *app) login(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("login", flag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}
	user, err := a.auth.Login(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s).\n", user.Name, user.Email)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("register", flag.ContinueOnError), args, 3)
	if err != nil {
		return err
	}
	msg, err := a.auth.Register(ctx, pos[0], pos[1], pos[2])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) resend(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("resend-verification", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	msg, err := a.auth.ResendVerification(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) whoami() error {
	s := a.sessions.Current()
	if !a.sessions.LoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (id %s)", s.Username, s.UserID)
	if s.IsAdmin() {
		fmt.Fprint(a.out, " [admin]")
	}
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, ", session expires %s", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) posts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ContinueOnError)
	tab := fs.String("tab", "all", "all, my or archived")
	category := fs.String("category", "all", "pest, health, growing, harvest, general or all")
	query := fs.String("q", "", "search in title and content")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	t, err := services.ParseTab(*tab)
	if err != nil {
		return usageError(err.Error())
	}
	c, ok := models.ParseCategory(*category)
	if !ok {
		return usageError(fmt.Sprintf("unknown category %q", *category))
	}

	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	a.forum.SetTab(t)
	a.forum.SetCategory(c)
	a.forum.SetQuery(*query)

	counts := a.forum.Counts()
	fmt.Fprintf(a.out, "All (%d) | My (%d) | Archived (%d)\n\n", counts[services.TabAll], counts[services.TabMy], counts[services.TabArchived])
	views := a.forum.View()
	if len(views) == 0 {
		fmt.Fprintln(a.out, "No posts found.")
		return nil
	}
	for _, v := range views {
		printPostLine(a, v)
	}
	return nil
}

func printPostLine(a *app, v services.PostView) {
	heart := "♡"
	if v.Liked {
		heart = "♥"
	}
	edited := ""
	if v.Edited {
		edited = " (edited)"
	}
	fmt.Fprintf(a.out, "%s  [%s] %s%s\n    by %s · %s %d · 💬 %d · %d image(s)\n",
		v.ID, v.Category.Label(), v.Title, edited, v.Username, heart, v.Likes, v.CommentsCount, len(v.ImageURLs))
}

func (a *app) show(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("show", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	v, ok := a.forum.Post(pos[0])
	if !ok {
		return services.ErrNotFound
	}
	printPostLine(a, v)
	fmt.Fprintf(a.out, "\n%s\n", v.Content)
	for _, u := range v.ImageURLs {
		fmt.Fprintf(a.out, "  image: %s\n", u)
	}

	threads, err := a.forum.Thread(v.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nComments (%d):\n", len(v.Comments))
	for _, t := range threads {
		printComment(a, v, t.Comment, "  ")
		for _, r := range t.Replies {
			printComment(a, v, r, "      ↳ ")
		}
	}
	return nil
}

func printComment(a *app, v services.PostView, c models.Comment, indent string) {
	heart := "♡"
	if v.CommentLiked[c.ID] {
		heart = "♥"
	}
	id := c.ID
	if id == "" {
		id = "(no id)"
	}
	fmt.Fprintf(a.out, "%s%s: %s  %s %d  [%s]\n", indent, c.AuthorName, c.Content, heart, c.Likes, id)
}

type postFlags struct {
	title, content, category string
	images                   stringList
	keep                     stringList
	clearImages              bool
	json                     bool
}

func (p *postFlags) register(fs *flag.FlagSet, edit bool) {
	fs.StringVar(&p.title, "title", "", "post title")
	fs.StringVar(&p.content, "content", "", "post content")
	fs.StringVar(&p.category, "category", "", "post category")
	fs.Var(&p.images, "image", "local image to upload (repeatable)")
	if edit {
		fs.Var(&p.keep, "keep", "existing image URL to keep (repeatable)")
		fs.BoolVar(&p.clearImages, "clear-images", false, "remove all images")
	} else {
		fs.BoolVar(&p.json, "json", false, "use the legacy JSON encoding (no images)")
	}
}

func (p *postFlags) loadImages() ([]client.ImageFile, error) {
	files := make([]client.ImageFile, 0, len(p.images))
	for _, path := range p.images {
		img, err := client.LoadImageFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, img)
	}
	return files, nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	var pf postFlags
	pf.register(fs, false)
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	images, err := pf.loadImages()
	if err != nil {
		return err
	}
	if pf.category == "" {
		pf.category = string(models.CategoryGeneral)
	}
	form := &client.PostForm{
		Title:    pf.title,
		Content:  pf.content,
		Category: models.Category(pf.category),
		Images:   images,
	}
	if pf.json {
		form.Encoding = client.EncodingJSON
	}

	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	res, err := a.forum.CreatePost(ctx, form)
	if err != nil {
		return err
	}
	printMutation(a, res.Message, res.Censored)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	var pf postFlags
	pf.register(fs, true)
	pos, err := positional(fs, args, 1)
	if err != nil {
		return err
	}
	images, err := pf.loadImages()
	if err != nil {
		return err
	}

	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	form, err := a.forum.EditFormFor(pos[0])
	if err != nil {
		return err
	}
	if pf.title != "" {
		form.Title = pf.title
	}
	if pf.content != "" {
		form.Content = pf.content
	}
	if pf.category != "" {
		form.Category = models.Category(pf.category)
	}
	switch {
	case pf.clearImages:
		form.ExistingImageURLs = nil
	case len(pf.keep) > 0:
		form.ExistingImageURLs = pf.keep
	}
	form.Images = images

	res, err := a.forum.EditPost(ctx, pos[0], form)
	if err != nil {
		return err
	}
	printMutation(a, res.Message, res.Censored)
	return nil
}

func printMutation(a *app, message string, censored bool) {
	fmt.Fprintln(a.out, message)
	if censored {
		fmt.Fprintln(a.out, "Note: some words were replaced because they are not allowed in the community.")
	}
}

func (a *app) moderate(ctx context.Context, action string, args []string) error {
	pos, err := positional(flag.NewFlagSet(action, flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	switch action {
	case "delete":
		err = a.forum.DeletePost(ctx, pos[0])
	case "archive":
		err = a.forum.ArchivePost(ctx, pos[0])
	default:
		err = a.forum.UnarchivePost(ctx, pos[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Post %s: %s done.\n", pos[0], action)
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("like", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	st, err := a.forum.TogglePostLike(ctx, pos[0])
	if err != nil {
		return err
	}
	printLike(a, st)
	return nil
}

func printLike(a *app, st services.LikeState) {
	verb := "Unliked"
	if st.Liked {
		verb = "Liked"
	}
	fmt.Fprintf(a.out, "%s. %d like(s).\n", verb, st.Count)
}

func (a *app) comment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comment", flag.ContinueOnError)
	replyTo := fs.String("reply-to", "", "id of the comment to reply to")
	pos, err := positional(fs, args, 2)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	res, err := a.forum.AddComment(ctx, pos[0], pos[1], *replyTo)
	if err != nil {
		return err
	}
	printMutation(a, res.Message, res.Censored)
	return nil
}

func (a *app) editComment(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("edit-comment", flag.ContinueOnError), args, 3)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	res, err := a.forum.EditComment(ctx, pos[0], pos[1], pos[2])
	if err != nil {
		return err
	}
	printMutation(a, res.Message, res.Censored)
	return nil
}

func (a *app) deleteComment(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("delete-comment", flag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	if err := a.forum.DeleteComment(ctx, pos[0], pos[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Comment deleted.")
	return nil
}

func (a *app) likeComment(ctx context.Context, args []string) error {
	pos, err := positional(flag.NewFlagSet("like-comment", flag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}
	if err := a.forum.Focus(ctx); err != nil {
		return err
	}
	st, err := a.forum.ToggleCommentLike(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	printLike(a, st)
	return nil
}

func (a *app) chatCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("chat: message is required")
	}
	answer, err := a.chat.Send(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, answer)
	return nil
}

func (a *app) suggestions(ctx context.Context) error {
	list, err := a.chat.Suggestions(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(a.out, "%d. [%s] %s\n", s.ID, s.Category, s.Question)
	}
	return nil
}
