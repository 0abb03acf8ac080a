package services

import "strings"

// OtherTopic labels text matching no topic keyword.
const OtherTopic = "autre"

// Topic groups keyword stems. A word belongs to the topic when it starts with one of the stems.
type Topic struct {
	Name  string
	Stems []string
}

// DefaultTopics covers what shipping and logistics reviews talk about.
// Ties go to the topic listed first.
var DefaultTopics = []Topic{
	{Name: "livraison", Stems: []string{"livr", "colis", "expédi", "expedi", "reçu", "recu", "arriv", "deliver", "parcel"}},
	{Name: "delai", Stems: []string{"délai", "delai", "retard", "attent", "rapid", "vite", "lent", "jour", "semaine", "late", "delay"}},
	{Name: "service_client", Stems: []string{"service", "client", "conseill", "répon", "repon", "contact", "téléphon", "telephon", "mail", "sav", "accueil", "support"}},
	{Name: "prix", Stems: []string{"prix", "tarif", "cher", "coût", "cout", "frais", "rembours", "factur", "price", "refund"}},
	{Name: "etat_colis", Stems: []string{"cass", "abîm", "abim", "endommag", "emballag", "état", "etat", "damag", "broken"}},
	{Name: "suivi", Stems: []string{"suivi", "tracking", "numéro", "numero", "localis", "informat", "track"}},
}

// TopicClassifier assigns the topic whose stems match the most words.
type TopicClassifier struct {
	topics []Topic
}

// NewTopicClassifier uses DefaultTopics when topics is empty.
func NewTopicClassifier(topics []Topic) *TopicClassifier {
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	return &TopicClassifier{topics: topics}
}

// Classify returns the best topic name, or OtherTopic when nothing matches.
func (c *TopicClassifier) Classify(text string) string {
	words := sentimentTokens(text)
	best, bestHits := OtherTopic, 0
	for _, topic := range c.topics {
		hits := 0
		for _, w := range words {
			for _, stem := range topic.Stems {
				if strings.HasPrefix(w, stem) {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			best, bestHits = topic.Name, hits
		}
	}
	return best
}
