// ABOUTME: Graphviz rendering of contact linkage for debugging imports
// ABOUTME: Draws contacts, their activities and surveys, and survey-to-activity links
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/cxboard/models"
)

// Reader is the read side of the store the graphs are drawn from.
type Reader interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
	ListActivities(ctx context.Context, contactID string) ([]models.Activity, error)
	ListSurveys(ctx context.Context, contactID string) ([]models.Survey, error)
}

type GraphGenerator struct {
	store Reader
}

func NewGraphGenerator(store Reader) *GraphGenerator {
	return &GraphGenerator{store: store}
}

// GenerateContactGraph renders one contact with its activities and surveys.
// Surveys linked to an activity hang off that activity; the rest hang off
// the contact.
func (g *GraphGenerator) GenerateContactGraph(ctx context.Context, contactID string, format graphviz.Format) ([]byte, error) {
	contact, err := g.store.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	activities, err := g.store.ListActivities(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	surveys, err := g.store.ListSurveys(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch surveys: %w", err)
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)
		graph.SetLabel(fmt.Sprintf("Linkage for %s", contact.DisplayName()))
		_, err := drawContact(graph, *contact, activities, surveys)
		return err
	})
}

// GenerateCompleteGraph renders every contact grouped under its directory.
func (g *GraphGenerator) GenerateCompleteGraph(ctx context.Context, format graphviz.Format) ([]byte, error) {
	contacts, err := g.store.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	type linkage struct {
		activities []models.Activity
		surveys    []models.Survey
	}
	children := make([]linkage, len(contacts))
	for i, c := range contacts {
		if children[i].activities, err = g.store.ListActivities(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("failed to fetch activities: %w", err)
		}
		if children[i].surveys, err = g.store.ListSurveys(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("failed to fetch surveys: %w", err)
		}
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)
		graph.SetLabel("All contacts")

		directories := make(map[string]*cgraph.Node)
		for i, c := range contacts {
			dir, ok := directories[c.Directory]
			if !ok {
				dir, err = graph.CreateNodeByName("directory_" + c.Directory)
				if err != nil {
					return fmt.Errorf("failed to create directory node: %w", err)
				}
				dir.SetLabel(c.Directory)
				dir.SetShape("folder")
				dir.SetStyle("filled")
				dir.SetFillColor("lightgrey")
				directories[c.Directory] = dir
			}

			node, err := drawContact(graph, c, children[i].activities, children[i].surveys)
			if err != nil {
				return err
			}
			if _, err := graph.CreateEdgeByName("member_"+c.ID, dir, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
		return nil
	})
}

func drawContact(graph *cgraph.Graph, c models.Contact, activities []models.Activity, surveys []models.Survey) (*cgraph.Node, error) {
	contactNode, err := graph.CreateNodeByName("contact_" + c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact node: %w", err)
	}
	contactNode.SetLabel(fmt.Sprintf("%s\n%s", c.DisplayName(), c.ID))
	contactNode.SetShape("ellipse")
	contactNode.SetStyle("filled")
	contactNode.SetFillColor("lightgreen")

	activityNodes := make(map[string]*cgraph.Node, len(activities))
	for _, a := range activities {
		node, err := graph.CreateNodeByName("activity_node_" + a.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create activity node: %w", err)
		}
		node.SetLabel(a.Activity)
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")
		activityNodes[a.ID] = node

		edge, err := graph.CreateEdgeByName("has_"+a.ID, contactNode, node)
		if err != nil {
			return nil, fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel("activity")
	}

	for _, s := range surveys {
		node, err := graph.CreateNodeByName("survey_node_" + s.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create survey node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", s.SurveyTitle, s.Status))
		node.SetShape("diamond")
		node.SetStyle("filled")
		node.SetFillColor("lightyellow")

		parent, label := contactNode, "survey"
		if s.ActivityID != nil {
			if an, ok := activityNodes[*s.ActivityID]; ok {
				parent, label = an, "triggered"
			}
		}
		edge, err := graph.CreateEdgeByName("sent_"+s.ID, parent, node)
		if err != nil {
			return nil, fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(label)
		if label == "survey" {
			edge.SetStyle("dashed")
		}
	}
	return contactNode, nil
}

func render(ctx context.Context, format graphviz.Format, draw func(*cgraph.Graph) error) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	if err := draw(graph); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.Bytes(), nil
}
