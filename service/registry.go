package service

// Catalog bundles every entity service over one shared set of
// dependencies.
type Catalog struct {
	Genres     *GenreService
	Languages  *LanguageService
	Publishers *PublisherService
	Sources    *SourceService
	Authors    *AuthorService
	Readers    *ReaderService
}

// NewCatalog creates all entity services.
func NewCatalog(d Deps) *Catalog {
	return &Catalog{
		Genres:     NewGenre(d),
		Languages:  NewLanguage(d),
		Publishers: NewPublisher(d),
		Sources:    NewSource(d),
		Authors:    NewAuthor(d),
		Readers:    NewReader(d),
	}
}

// Names lists the managed entity kinds, for startup logging.
func (c *Catalog) Names() []string {
	return []string{"genre", "language", "publisher", "source", "author", "reader"}
}
