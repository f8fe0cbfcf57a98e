package domain

import "time"

func intPtr(v int) *int { return &v }

// StarterBooks is the classics pack offered during setup.
var StarterBooks = []BookDraft{
	{
		ISBN:           "9780141439518",
		Title:          "Pride and Prejudice",
		Author:         "Jane Austen",
		Genres:         []string{"Classic", "Romance"},
		Tags:           []string{"Essential"},
		MinAge:         intPtr(12),
		CoverURL:       "https://covers.openlibrary.org/b/id/14549557-L.jpg",
		EstimatedValue: 450,
		Summary:        "A romantic novel of manners written by Jane Austen. The novel follows the character development of Elizabeth Bennet, the dynamic protagonist of the book who learns about the repercussions of hasty judgments.",
	},
	{
		ISBN:           "9780743273565",
		Title:          "The Great Gatsby",
		Author:         "F. Scott Fitzgerald",
		Genres:         []string{"Classic", "Fiction"},
		Tags:           []string{"American Dream"},
		MinAge:         intPtr(14),
		CoverURL:       "https://covers.openlibrary.org/b/id/8408332-L.jpg",
		EstimatedValue: 600,
		Summary:        "A novel set in the Jazz Age on Long Island. It tells the story of Jay Gatsby, a self-made millionaire, and his pursuit of Daisy Buchanan.",
	},
	{
		ISBN:           "9780439139601",
		Title:          "Harry Potter and the Sorcerer's Stone",
		Author:         "J.K. Rowling",
		Genres:         []string{"Fantasy", "Young Adult"},
		Tags:           []string{"Magic", "Wizards"},
		MinAge:         intPtr(9),
		CoverURL:       "https://covers.openlibrary.org/b/id/10522194-L.jpg",
		EstimatedValue: 800,
		Summary:        "A young wizard discovers his magical heritage on his eleventh birthday when he receives a letter of acceptance to Hogwarts School of Witchcraft and Wizardry.",
		Series:         "Harry Potter",
		SeriesIndex:    "1",
	},
	{
		ISBN:           "9780345391803",
		Title:          "The Hitchhiker's Guide to the Galaxy",
		Author:         "Douglas Adams",
		Genres:         []string{"Sci-Fi", "Comedy"},
		Tags:           []string{"Space", "Funny"},
		MinAge:         intPtr(10),
		CoverURL:       "https://covers.openlibrary.org/b/id/12632205-L.jpg",
		EstimatedValue: 350,
		Summary:        "Seconds before the Earth is demolished to make way for a galactic freeway, Arthur Dent is plucked off the planet by his friend Ford Prefect.",
	},
}

// StarterPack materializes the starter books, spreading them round-robin over
// the given locations. newID is called once per book.
func StarterPack(newID func() string, addedBy string, locations []Location, now time.Time) []Book {
	books := make([]Book, 0, len(StarterBooks))
	for i, d := range StarterBooks {
		b := d.ToBook(newID(), addedBy, now)
		if len(locations) > 0 {
			b.LocationID = locations[i%len(locations)].ID
		}
		books = append(books, b)
	}
	return books
}
