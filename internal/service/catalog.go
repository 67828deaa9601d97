package service

import (
	"fmt"

	"content-eval/internal/models"
	"content-eval/internal/repository"
)

// taskCatalog is the fixed set of content briefs. Tasks are immutable;
// runs never modify them.
var taskCatalog = []models.Task{
	{
		ID:          "A",
		ContentType: models.ContentBlogIntro,
		Title:       "Blog intro: onboarding time cut",
		Description: "Opening paragraph for a blog post about reducing customer onboarding time from two weeks to two days.",
		StructuredPrompt: "Write the opening paragraph (80-120 words) of a blog post for a B2B SaaS audience. " +
			"Topic: how we cut customer onboarding time from two weeks to two days. " +
			"Tone: confident but not boastful. Hook the reader with the cost of slow onboarding, " +
			"then hint at the three changes that made the difference. No bullet points, no headings.",
		ExamplePromptTemplate: "Here are two samples of our brand voice:\n\n---\n{sample1}\n---\n{sample2}\n---\n\n" +
			"Matching that voice, write the opening paragraph (80-120 words) of a blog post about how we cut " +
			"customer onboarding time from two weeks to two days. No bullet points, no headings.",
	},
	{
		ID:          "B",
		ContentType: models.ContentBlogIntro,
		Title:       "Blog intro: pricing lessons",
		Description: "Opening paragraph for a blog post about lessons learned from changing our pricing model three times.",
		StructuredPrompt: "Write the opening paragraph (80-120 words) of a blog post for startup founders. " +
			"Topic: what we learned changing our pricing model three times in two years. " +
			"Tone: candid, a little self-deprecating. Open with the most expensive mistake, " +
			"promise concrete numbers later in the post. No bullet points, no headings.",
		ExamplePromptTemplate: "Here are two samples of our brand voice:\n\n---\n{sample1}\n---\n{sample2}\n---\n\n" +
			"Matching that voice, write the opening paragraph (80-120 words) of a blog post about what we learned " +
			"changing our pricing model three times in two years. No bullet points, no headings.",
	},
	{
		ID:          "C",
		ContentType: models.ContentLinkedIn,
		Title:       "LinkedIn: hiring announcement",
		Description: "LinkedIn post announcing that the engineering team is hiring and what makes the team different.",
		StructuredPrompt: "Write a LinkedIn post (max 150 words) announcing that our engineering team is hiring. " +
			"Mention that we are remote-first, that engineers own features end to end, and that the interview " +
			"process has no whiteboard puzzles. End with a low-pressure call to action. " +
			"No hashtag spam: at most two hashtags.",
		ExamplePromptTemplate: "Here are two samples of our brand voice:\n\n---\n{sample1}\n---\n{sample2}\n---\n\n" +
			"Matching that voice, write a LinkedIn post (max 150 words) announcing that our engineering team is " +
			"hiring: remote-first, end-to-end feature ownership, no whiteboard interviews. At most two hashtags.",
	},
	{
		ID:          "D",
		ContentType: models.ContentLinkedIn,
		Title:       "LinkedIn: customer milestone",
		Description: "LinkedIn post celebrating the 1,000th customer without sounding like a press release.",
		StructuredPrompt: "Write a LinkedIn post (max 150 words) celebrating our 1,000th customer. " +
			"Avoid press-release language. Focus on one short story about an early customer who almost churned " +
			"and stayed. Thank the team in one sentence. At most one hashtag.",
		ExamplePromptTemplate: "Here are two samples of our brand voice:\n\n---\n{sample1}\n---\n{sample2}\n---\n\n" +
			"Matching that voice, write a LinkedIn post (max 150 words) celebrating our 1,000th customer, built " +
			"around one short story about an early customer who almost churned and stayed. At most one hashtag.",
	},
	{
		ID:          "E",
		ContentType: models.ContentAnnouncement,
		Title:       "Announcement: API v2 launch",
		Description: "Product announcement for the launch of API v2 with breaking changes and a migration window.",
		StructuredPrompt: "Write a product announcement (120-180 words) for the launch of our API v2. " +
			"It includes breaking changes; the v1 API stays available for six months. " +
			"Audience: developers already integrated with v1. Lead with what they gain (cursor pagination, " +
			"idempotency keys, 3x rate limits), then be direct about the migration deadline. " +
			"Plain prose with one short paragraph per point.",
		ExamplePromptTemplate: "Here are two samples of our brand voice:\n\n---\n{sample1}\n---\n{sample2}\n---\n\n" +
			"Matching that voice, write a product announcement (120-180 words) for our API v2 launch: cursor " +
			"pagination, idempotency keys, 3x rate limits, breaking changes, v1 supported for six more months.",
	},
	{
		ID:          "F",
		ContentType: models.ContentAnnouncement,
		Title:       "Announcement: pricing change",
		Description: "Announcement of a price increase for new customers, with existing customers grandfathered.",
		StructuredPrompt: "Write an announcement (120-180 words) of a 20% price increase that applies to new " +
			"customers only; existing customers keep their current price indefinitely. " +
			"Audience: current customers and trial users. Be direct about the number, explain the reason " +
			"in one sentence (expanded support coverage), and make the grandfathering unmistakably clear.",
		ExamplePromptTemplate: "Here are two samples of our brand voice:\n\n---\n{sample1}\n---\n{sample2}\n---\n\n" +
			"Matching that voice, write an announcement (120-180 words) of a 20% price increase for new customers " +
			"only, existing customers grandfathered indefinitely, reason: expanded support coverage.",
	},
}

// SeedTasks inserts any catalog tasks missing from the database.
// Returns the number inserted.
func SeedTasks(taskRepo *repository.TaskRepository) (int, error) {
	inserted := 0
	for i := range taskCatalog {
		task := taskCatalog[i]
		exists, err := taskRepo.ExistsByID(task.ID)
		if err != nil {
			return inserted, fmt.Errorf("%w: check task %s: %v", ErrPersistence, task.ID, err)
		}
		if exists {
			continue
		}
		if err := taskRepo.Create(&task); err != nil {
			return inserted, fmt.Errorf("%w: seed task %s: %v", ErrPersistence, task.ID, err)
		}
		inserted++
	}
	return inserted, nil
}
